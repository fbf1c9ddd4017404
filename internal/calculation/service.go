package calculation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/calcman/internal/model"
	"github.com/hitoshi/calcman/internal/repository"
)

// Service は計算レコードのCRUDを提供するサービス層。
// すべての操作は所有者スコープで実行される。他ユーザーのレコードへの
// アクセスは存在しない場合と区別せずNotFoundとして扱い、
// レコードの存在自体を非所有者に漏らさない。
type Service struct {
	calcRepo repository.CalculationRepository
}

// NewService はServiceを生成する。
func NewService(calcRepo repository.CalculationRepository) *Service {
	return &Service{calcRepo: calcRepo}
}

// Create は計算を作成する。結果は作成時点で演算エンジンにより計算され、
// 外部から与えられることはない。
func (s *Service) Create(ctx context.Context, userID, typeTag string, inputs []float64) (*model.Calculation, error) {
	calcType, err := ParseCalculationType(typeTag)
	if err != nil {
		return nil, err
	}

	result, err := Compute(calcType, inputs)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	calc := &model.Calculation{
		ID:        uuid.New().String(),
		UserID:    userID,
		Type:      calcType,
		Inputs:    inputs,
		Result:    result,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.calcRepo.Create(ctx, calc); err != nil {
		return nil, fmt.Errorf("計算の保存に失敗しました: %w", err)
	}

	slog.Info("calculation created",
		slog.String("calculation_id", calc.ID),
		slog.String("user_id", userID),
		slog.String("type", string(calcType)),
	)

	return calc, nil
}

// List は認証済みユーザーの計算一覧をcreated_at降順で返す。
// typeTagが空でない場合は種別で絞り込む。
func (s *Service) List(ctx context.Context, userID, typeTag string, limit, offset int) ([]*model.Calculation, error) {
	filter := repository.CalculationFilter{
		Limit:  limit,
		Offset: offset,
	}

	if typeTag != "" {
		calcType, err := ParseCalculationType(typeTag)
		if err != nil {
			return nil, err
		}
		filter.Type = calcType
	}

	calcs, err := s.calcRepo.ListByUserID(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("計算一覧の取得に失敗しました: %w", err)
	}

	return calcs, nil
}

// Get は指定IDの計算を返す。存在しない場合、または呼び出しユーザーが
// 所有者でない場合はNotFoundを返す。
func (s *Service) Get(ctx context.Context, userID, calcID string) (*model.Calculation, error) {
	return s.findOwned(ctx, userID, calcID)
}

// Update は計算の入力値を差し替え、結果を同一種別で再計算して保存する。
// 入力と結果が乖離した状態は決して永続化されない。
func (s *Service) Update(ctx context.Context, userID, calcID string, inputs []float64) (*model.Calculation, error) {
	calc, err := s.findOwned(ctx, userID, calcID)
	if err != nil {
		return nil, err
	}

	result, err := Compute(calc.Type, inputs)
	if err != nil {
		return nil, err
	}

	calc.Inputs = inputs
	calc.Result = result
	calc.UpdatedAt = time.Now()

	if err := s.calcRepo.Update(ctx, calc); err != nil {
		return nil, fmt.Errorf("計算の更新に失敗しました: %w", err)
	}

	return calc, nil
}

// Delete は指定IDの計算を削除する。所有者以外は削除できない。
func (s *Service) Delete(ctx context.Context, userID, calcID string) error {
	calc, err := s.findOwned(ctx, userID, calcID)
	if err != nil {
		return err
	}

	if err := s.calcRepo.Delete(ctx, calc.ID); err != nil {
		return fmt.Errorf("計算の削除に失敗しました: %w", err)
	}

	slog.Info("calculation deleted",
		slog.String("calculation_id", calcID),
		slog.String("user_id", userID),
	)

	return nil
}

// findOwned は計算を取得し所有者を検証する。
// 不在と所有者不一致はどちらも同一のNotFoundエラーを返す。
func (s *Service) findOwned(ctx context.Context, userID, calcID string) (*model.Calculation, error) {
	calc, err := s.calcRepo.FindByID(ctx, calcID)
	if err != nil {
		return nil, fmt.Errorf("計算の取得に失敗しました: %w", err)
	}
	if calc == nil {
		return nil, model.NewCalculationNotFoundError(calcID)
	}
	if calc.UserID != userID {
		return nil, model.NewCalculationNotFoundError(calcID)
	}
	return calc, nil
}
