// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/hitoshi/calcman/internal/model"
)

// ErrDuplicateUser はユーザー名またはメールアドレスの一意制約違反を表す。
// トランザクション内の事前チェックとコミット時の制約違反の両方でこのエラーを返す。
var ErrDuplicateUser = errors.New("duplicate username or email")

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByUsernameOrEmail はユーザー名またはメールアドレスのOR条件でユーザーを検索する。
	// ログイン識別子はどちらでもよい。見つからない場合はnilを返す。
	FindByUsernameOrEmail(ctx context.Context, usernameOrEmail string) (*model.User, error)

	// Create はユーザーを作成する。重複チェックと挿入を同一トランザクションで実行し、
	// ユーザー名またはメールアドレスが既に存在する場合はErrDuplicateUserを返す。
	// 失敗時に部分的なレコードは残らない。
	Create(ctx context.Context, user *model.User) error

	// UpdateLastLogin は最終ログイン日時を更新する。updated_atも同時に更新される。
	UpdateLastLogin(ctx context.Context, id string, loginAt time.Time) error

	// DeleteByID は指定IDのユーザーを削除する。
	// 関連するcalculationsはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// CalculationFilter は計算一覧取得の絞り込み条件。
type CalculationFilter struct {
	// Type は計算種別での絞り込み。空文字の場合は全種別。
	Type model.CalculationType
	// Limit は取得件数の上限。0以下の場合はデフォルト値を適用する。
	Limit int
	// Offset は取得開始位置。
	Offset int
}

// CalculationRepository は計算レコードの永続化インターフェース。
type CalculationRepository interface {
	// FindByID は指定IDの計算を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Calculation, error)

	// ListByUserID は指定ユーザーの計算一覧をcreated_at降順で返す。
	ListByUserID(ctx context.Context, userID string, filter CalculationFilter) ([]*model.Calculation, error)

	// Create は計算レコードを作成する。
	Create(ctx context.Context, calc *model.Calculation) error

	// Update は計算の入力値・結果・更新日時を上書き更新する。
	Update(ctx context.Context, calc *model.Calculation) error

	// Delete は指定IDの計算を削除する。
	Delete(ctx context.Context, id string) error

	// DeleteByUserID は指定ユーザーの全計算を削除する。退会処理で使用する。
	DeleteByUserID(ctx context.Context, userID string) error
}
