// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, calculation, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeWeakPassword        = "WEAK_PASSWORD"
	ErrCodeDuplicateUser       = "DUPLICATE_USER"
	ErrCodePasswordMismatch    = "PASSWORD_MISMATCH"
	ErrCodeInvalidCredentials  = "INVALID_CREDENTIALS"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeInactiveUser        = "INACTIVE_USER"
	ErrCodeUnsupportedCalcType = "UNSUPPORTED_CALCULATION_TYPE"
	ErrCodeInvalidInputs       = "INVALID_INPUTS"
	ErrCodeDivisionByZero      = "DIVISION_BY_ZERO"
	ErrCodeCalculationNotFound = "CALCULATION_NOT_FOUND"
	ErrCodeUserNotFound        = "USER_NOT_FOUND"
)

// NewWeakPasswordError はパスワード強度不足エラーを生成する。
func NewWeakPasswordError(minLength int) *APIError {
	return &APIError{
		Code:     ErrCodeWeakPassword,
		Message:  fmt.Sprintf("パスワードは%d文字以上である必要があります。", minLength),
		Category: "validation",
		Action:   "より長いパスワードを設定してください。",
	}
}

// NewDuplicateUserError はユーザー名またはメールアドレスの重複エラーを生成する。
// どちらが重複したかは区別せず、同一のメッセージを返す。
func NewDuplicateUserError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateUser,
		Message:  "このユーザー名またはメールアドレスは既に使用されています。",
		Category: "validation",
		Action:   "別のユーザー名またはメールアドレスで登録してください。",
	}
}

// NewPasswordMismatchError はパスワード確認の不一致エラーを生成する。
func NewPasswordMismatchError() *APIError {
	return &APIError{
		Code:     ErrCodePasswordMismatch,
		Message:  "パスワードと確認用パスワードが一致しません。",
		Category: "validation",
		Action:   "同じパスワードを2回入力してください。",
	}
}

// NewInvalidCredentialsError は認証失敗エラーを生成する。
// ユーザー不在とパスワード不一致のどちらでも同一のエラーを返し、
// どちらのケースかを外部に漏らさない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "ユーザー名またはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
// トークンの欠落・期限切れ・署名不正のいずれでも同一のエラーを返す。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインして有効なトークンを提示してください。",
	}
}

// NewInactiveUserError は無効化されたアカウントに対するエラーを生成する。
func NewInactiveUserError() *APIError {
	return &APIError{
		Code:     ErrCodeInactiveUser,
		Message:  "このアカウントは無効化されています。",
		Category: "auth",
		Action:   "管理者にお問い合わせください。",
	}
}

// NewUnsupportedCalculationTypeError は未対応の計算種別エラーを生成する。
func NewUnsupportedCalculationTypeError(calcType string) *APIError {
	return &APIError{
		Code:     ErrCodeUnsupportedCalcType,
		Message:  fmt.Sprintf("未対応の計算種別です: %s", calcType),
		Category: "validation",
		Action:   "計算種別には addition、subtraction、multiplication、division のいずれかを指定してください。",
	}
}

// NewInvalidInputsError は計算入力の検証エラーを生成する。
func NewInvalidInputsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidInputs,
		Message:  "入力値は2個以上の数値のリストである必要があります。",
		Category: "validation",
		Action:   "2個以上の数値を指定してください。",
	}
}

// NewDivisionByZeroError はゼロ除算エラーを生成する。
func NewDivisionByZeroError() *APIError {
	return &APIError{
		Code:     ErrCodeDivisionByZero,
		Message:  "0で除算することはできません。",
		Category: "validation",
		Action:   "除数に0以外の値を指定してください。",
	}
}

// NewCalculationNotFoundError は計算レコード未検出エラーを生成する。
// 他ユーザーのレコードへのアクセスも存在しない場合と区別せずこのエラーを返す。
func NewCalculationNotFoundError(calcID string) *APIError {
	return &APIError{
		Code:     ErrCodeCalculationNotFound,
		Message:  fmt.Sprintf("指定された計算が見つかりません: %s", calcID),
		Category: "calculation",
		Action:   "計算IDを確認してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}
