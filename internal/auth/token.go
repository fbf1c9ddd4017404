package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenKind はトークンの用途種別を表す。
type TokenKind string

const (
	// TokenKindAccess は短命のアクセストークン。
	TokenKindAccess TokenKind = "access"
	// TokenKindRefresh は長命のリフレッシュトークン。
	TokenKindRefresh TokenKind = "refresh"
)

// トークン検証の失敗理由。ハンドラー層ではすべて401に集約されるが、
// テストとログでは区別できるようにしておく。
var (
	// ErrTokenMalformed はトークンが解析不能であることを表す。
	ErrTokenMalformed = errors.New("token is malformed")
	// ErrTokenSignatureInvalid は署名検証の失敗を表す。
	ErrTokenSignatureInvalid = errors.New("token signature is invalid")
	// ErrTokenExpired は有効期限切れを表す。
	ErrTokenExpired = errors.New("token is expired")
	// ErrTokenWrongKind はトークン種別の不一致（refreshをaccessとして使う等）を表す。
	ErrTokenWrongKind = errors.New("token kind mismatch")
)

// tokenClaims はJWTペイロード。標準クレームに用途種別を追加する。
type tokenClaims struct {
	jwt.RegisteredClaims
	Kind TokenKind `json:"kind"`
}

// TokenServiceConfig はTokenServiceの設定。
type TokenServiceConfig struct {
	Secret          []byte
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// TokenService はHS256署名付きJWTの発行と検証を提供する。
// トークンは自己完結であり、検証にI/Oを必要としない。
// 失効リストは持たない。アクセストークンのTTLを短く保つことで露出を限定する。
type TokenService struct {
	config TokenServiceConfig
}

// NewTokenService はTokenServiceを生成する。
func NewTokenService(config TokenServiceConfig) *TokenService {
	return &TokenService{config: config}
}

// Issue は指定ユーザーを主体とするトークンを発行する。
// 有効期限はkindに応じたTTLをnowに加算した時刻となる。
func (s *TokenService) Issue(subject string, kind TokenKind, now time.Time) (string, error) {
	ttl := s.config.AccessTokenTTL
	if kind == TokenKindRefresh {
		ttl = s.config.RefreshTokenTTL
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Kind: kind,
	})

	signed, err := token.SignedString(s.config.Secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// Validate はトークンを検証し、主体（ユーザーID）を返す。
// 署名・有効期限・種別のいずれかが不正な場合は対応するエラーを返す。
// nowを基準時刻として期限判定を行う。
func (s *TokenService) Validate(tokenString string, expected TokenKind, now time.Time) (string, error) {
	claims := &tokenClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			return s.config.Secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return "", ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return "", ErrTokenSignatureInvalid
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", ErrTokenExpired
		default:
			return "", fmt.Errorf("failed to parse token: %w", err)
		}
	}
	if !token.Valid {
		return "", ErrTokenSignatureInvalid
	}

	if claims.Kind != expected {
		return "", ErrTokenWrongKind
	}
	if claims.Subject == "" {
		return "", ErrTokenMalformed
	}

	return claims.Subject, nil
}
