package repository

import (
	"context"
	"fmt"

	"github.com/campusmind/support_server/internal/model"
	"github.com/campusmind/support_server/internal/repository/base"
)

type ScreeningRepository struct {
	db *base.Repository
}

func NewScreeningRepository(db *base.Repository) *ScreeningRepository {
	return &ScreeningRepository{db: db}
}

// Create сохраняет результат опросника
func (r *ScreeningRepository) Create(ctx context.Context, result *model.ScreeningResult) error {
	query := `
		INSERT INTO screening_responses (user_id, screening_type, responses, total_score, risk_level, crisis_flag)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.db.DB(ctx).QueryRow(
		ctx, query,
		result.UserID,
		result.Type,
		result.Responses,
		result.TotalScore,
		result.RiskLevel,
		result.CrisisFlag,
	).Scan(&result.ID, &result.CreatedAt)

	if err != nil {
		return fmt.Errorf("create screening response: %w", err)
	}

	return nil
}

// GetByUserID получает историю опросников пользователя, новые первыми
func (r *ScreeningRepository) GetByUserID(ctx context.Context, userID int64) ([]*model.ScreeningResult, error) {
	query := `
		SELECT id, user_id, screening_type, responses, total_score, risk_level, crisis_flag, created_at
		FROM screening_responses
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.DB(ctx).Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("get screening responses by user: %w", err)
	}
	defer rows.Close()

	var results []*model.ScreeningResult
	for rows.Next() {
		var result model.ScreeningResult
		err := rows.Scan(
			&result.ID,
			&result.UserID,
			&result.Type,
			&result.Responses,
			&result.TotalScore,
			&result.RiskLevel,
			&result.CrisisFlag,
			&result.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan screening response: %w", err)
		}
		result.MaxScore = result.Type.ItemCount() * 3
		results = append(results, &result)
	}

	return results, rows.Err()
}
