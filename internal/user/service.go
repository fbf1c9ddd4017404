// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/calcman/internal/model"
	"github.com/hitoshi/calcman/internal/repository"
)

// Service はユーザー管理のサービス層。
type Service struct {
	userRepo repository.UserRepository
	calcRepo repository.CalculationRepository
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository, calcRepo repository.CalculationRepository) *Service {
	return &Service{
		userRepo: userRepo,
		calcRepo: calcRepo,
	}
}

// Withdraw はユーザーの退会処理を実行する。
// 所有する全計算レコードを削除したうえでユーザー本体を削除する。
// 外部キーのCASCADE制約も張られているため、途中失敗してもユーザー削除時に
// 残りの計算は取り除かれる。
func (s *Service) Withdraw(ctx context.Context, userID string) error {
	u, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if u == nil {
		return model.NewUserNotFoundError()
	}

	if err := s.calcRepo.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("計算レコードの削除に失敗しました: %w", err)
	}

	if err := s.userRepo.DeleteByID(ctx, userID); err != nil {
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}

	slog.Info("user withdrawn", slog.String("user_id", userID))
	return nil
}
