// Package auth はパスワード認証、トークンの発行・検証を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/calcman/internal/model"
	"github.com/hitoshi/calcman/internal/repository"
)

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	MinPasswordLength int // パスワードの最小文字数
}

// RegisterInput はユーザー登録の入力。
type RegisterInput struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Password  string
}

// AuthResult は認証成功時の結果。アクセストークンとリフレッシュトークンの
// ペア、アクセストークンの有効期限、認証されたユーザーを含む。
type AuthResult struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresAt    time.Time
	User         *model.User
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	hasher   *PasswordHasher
	tokens   *TokenService
	config   ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	userRepo repository.UserRepository,
	hasher *PasswordHasher,
	tokens *TokenService,
	config ServiceConfig,
) *Service {
	return &Service{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
		config:   config,
	}
}

// Register は新規ユーザーを登録する。
// パスワードが最小文字数未満の場合、またはユーザー名かメールアドレスが
// 既に存在する場合はエラーを返す。重複チェックと挿入はリポジトリ側で
// 同一トランザクションとして実行されるため、失敗時に部分的なレコードは残らない。
func (s *Service) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	if len(input.Password) < s.config.MinPasswordLength {
		return nil, model.NewWeakPasswordError(s.config.MinPasswordLength)
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("パスワードのハッシュ化に失敗しました: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		IsActive:     true,
		IsVerified:   false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			return nil, model.NewDuplicateUserError()
		}
		return nil, fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
	}

	slog.Info("new user registered",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// Authenticate はユーザー名またはメールアドレスとパスワードで認証し、
// アクセストークンとリフレッシュトークンのペアを発行する。
// ユーザー不在とパスワード不一致は意図的に同一のエラーとして返す。
// 成功時は最終ログイン日時を更新する。
func (s *Service) Authenticate(ctx context.Context, usernameOrEmail, password string) (*AuthResult, error) {
	user, err := s.userRepo.FindByUsernameOrEmail(ctx, usernameOrEmail)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの検索に失敗しました: %w", err)
	}
	if user == nil || !s.hasher.Verify(password, user.PasswordHash) {
		return nil, model.NewInvalidCredentialsError()
	}

	now := time.Now()
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("最終ログイン日時の更新に失敗しました: %w", err)
	}
	user.LastLoginAt = &now
	user.UpdatedAt = now

	result, err := s.issueTokenPair(user, now)
	if err != nil {
		return nil, err
	}

	slog.Info("user logged in", slog.String("user_id", user.ID))
	return result, nil
}

// Refresh はリフレッシュトークンを検証し、新しいトークンペアを発行する。
// トークンはステートレスであり、使用済みトークンの失効管理は行わない。
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	now := time.Now()

	subject, err := s.tokens.Validate(refreshToken, TokenKindRefresh, now)
	if err != nil {
		return nil, model.NewUnauthorizedError()
	}

	user, err := s.userRepo.FindByID(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの検索に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUnauthorizedError()
	}
	if !user.IsActive {
		return nil, model.NewInactiveUserError()
	}

	result, err := s.issueTokenPair(user, now)
	if err != nil {
		return nil, err
	}

	slog.Info("token refreshed", slog.String("user_id", user.ID))
	return result, nil
}

// CurrentUser は認証済みユーザーIDからユーザー情報を取得する。
func (s *Service) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの検索に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// issueTokenPair はアクセス・リフレッシュの両トークンを発行する。
func (s *Service) issueTokenPair(user *model.User, now time.Time) (*AuthResult, error) {
	accessToken, err := s.tokens.Issue(user.ID, TokenKindAccess, now)
	if err != nil {
		return nil, fmt.Errorf("アクセストークンの発行に失敗しました: %w", err)
	}
	refreshToken, err := s.tokens.Issue(user.ID, TokenKindRefresh, now)
	if err != nil {
		return nil, fmt.Errorf("リフレッシュトークンの発行に失敗しました: %w", err)
	}

	return &AuthResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresAt:    now.Add(s.tokens.config.AccessTokenTTL),
		User:         user,
	}, nil
}
