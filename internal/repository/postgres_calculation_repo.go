package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/hitoshi/calcman/internal/model"
)

// defaultListLimit は計算一覧取得のデフォルト件数。
const defaultListLimit = 50

// PostgresCalculationRepo はPostgreSQLを使用した計算リポジトリ。
// inputsはJSONB列として格納する。
type PostgresCalculationRepo struct {
	db *sql.DB
}

// NewPostgresCalculationRepo はPostgresCalculationRepoを生成する。
func NewPostgresCalculationRepo(db *sql.DB) *PostgresCalculationRepo {
	return &PostgresCalculationRepo{db: db}
}

// FindByID は指定IDの計算を取得する。見つからない場合はnilを返す。
func (r *PostgresCalculationRepo) FindByID(ctx context.Context, id string) (*model.Calculation, error) {
	calc := &model.Calculation{}
	var inputsJSON []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, type, inputs, result, created_at, updated_at
		 FROM calculations WHERE id = $1`,
		id,
	).Scan(&calc.ID, &calc.UserID, &calc.Type, &inputsJSON, &calc.Result, &calc.CreatedAt, &calc.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find calculation by ID: %w", err)
	}

	if err := json.Unmarshal(inputsJSON, &calc.Inputs); err != nil {
		return nil, fmt.Errorf("failed to decode calculation inputs: %w", err)
	}

	return calc, nil
}

// ListByUserID は指定ユーザーの計算一覧をcreated_at降順で返す。
// filter.Typeが空でない場合は種別で絞り込む。
func (r *PostgresCalculationRepo) ListByUserID(ctx context.Context, userID string, filter CalculationFilter) ([]*model.Calculation, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := `SELECT id, user_id, type, inputs, result, created_at, updated_at
		 FROM calculations WHERE user_id = $1`
	args := []interface{}{userID}

	if filter.Type != "" {
		query += ` AND type = $2 ORDER BY created_at DESC LIMIT $3 OFFSET $4`
		args = append(args, string(filter.Type), limit, offset)
	} else {
		query += ` ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		args = append(args, limit, offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list calculations: %w", err)
	}
	defer rows.Close()

	var calcs []*model.Calculation
	for rows.Next() {
		calc := &model.Calculation{}
		var inputsJSON []byte
		if err := rows.Scan(&calc.ID, &calc.UserID, &calc.Type, &inputsJSON, &calc.Result, &calc.CreatedAt, &calc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan calculation row: %w", err)
		}
		if err := json.Unmarshal(inputsJSON, &calc.Inputs); err != nil {
			return nil, fmt.Errorf("failed to decode calculation inputs: %w", err)
		}
		calcs = append(calcs, calc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate calculation rows: %w", err)
	}

	return calcs, nil
}

// Create は計算レコードを作成する。
func (r *PostgresCalculationRepo) Create(ctx context.Context, calc *model.Calculation) error {
	inputsJSON, err := json.Marshal(calc.Inputs)
	if err != nil {
		return fmt.Errorf("failed to encode calculation inputs: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO calculations (id, user_id, type, inputs, result, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		calc.ID, calc.UserID, string(calc.Type), inputsJSON, calc.Result, calc.CreatedAt, calc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert calculation: %w", err)
	}

	return nil
}

// Update は計算の入力値・結果・更新日時を上書き更新する。
// 結果は常に入力値から再計算された値を渡すこと。
func (r *PostgresCalculationRepo) Update(ctx context.Context, calc *model.Calculation) error {
	inputsJSON, err := json.Marshal(calc.Inputs)
	if err != nil {
		return fmt.Errorf("failed to encode calculation inputs: %w", err)
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE calculations SET inputs = $2, result = $3, updated_at = $4 WHERE id = $1`,
		calc.ID, inputsJSON, calc.Result, calc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update calculation: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("calculation not found: %s", calc.ID)
	}

	return nil
}

// Delete は指定IDの計算を削除する。
func (r *PostgresCalculationRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM calculations WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete calculation: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("calculation not found: %s", id)
	}

	return nil
}

// DeleteByUserID は指定ユーザーの全計算を削除する。
func (r *PostgresCalculationRepo) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM calculations WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete calculations by user: %w", err)
	}
	return nil
}

// compile-time interface check
var _ CalculationRepository = (*PostgresCalculationRepo)(nil)
