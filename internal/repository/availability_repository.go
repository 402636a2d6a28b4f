package repository

import (
	"context"
	"fmt"

	"github.com/campusmind/support_server/internal/model"
	"github.com/campusmind/support_server/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"
)

// AvailabilityRepository управляет недельными правилами доступности
type AvailabilityRepository struct {
	db     *base.Repository
	logger *zap.Logger
}

// NewAvailabilityRepository создаёт новый репозиторий
func NewAvailabilityRepository(db *base.Repository, logger *zap.Logger) *AvailabilityRepository {
	return &AvailabilityRepository{
		db:     db,
		logger: logger,
	}
}

// GetByCounselorID получает все правила консультанта
func (r *AvailabilityRepository) GetByCounselorID(ctx context.Context, counselorID int64) ([]*model.AvailabilityRule, error) {
	query := `
		SELECT id, revision_id, counselor_id, day_of_week, start_time, end_time, is_active, created_at
		FROM availability_rules
		WHERE counselor_id = $1
		ORDER BY day_of_week, start_time
	`

	rows, err := r.db.DB(ctx).Query(ctx, query, counselorID)
	if err != nil {
		return nil, fmt.Errorf("get availability rules by counselor: %w", err)
	}
	defer rows.Close()

	var rules []*model.AvailabilityRule
	for rows.Next() {
		var (
			rule       model.AvailabilityRule
			start, end pgtype.Time
		)
		err := rows.Scan(
			&rule.ID,
			&rule.RevisionID,
			&rule.CounselorID,
			&rule.DayOfWeek,
			&start,
			&end,
			&rule.IsActive,
			&rule.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan availability rule: %w", err)
		}
		rule.StartTime = base.FromPgTime(start)
		rule.EndTime = base.FromPgTime(end)
		rules = append(rules, &rule)
	}

	return rules, rows.Err()
}

// Replace атомарно заменяет весь набор правил консультанта.
// Старые правила удаляются и новые вставляются в одной транзакции,
// поэтому читатели никогда не видят пустой набор посреди обновления.
func (r *AvailabilityRepository) Replace(ctx context.Context, counselorID int64, rules []*model.AvailabilityRule) (uuid.UUID, error) {
	revisionID := uuid.New()

	err := r.db.WithTx(ctx, func(ctx context.Context) error {
		deleted, err := r.db.ExecAffected(ctx, `DELETE FROM availability_rules WHERE counselor_id = $1`, counselorID)
		if err != nil {
			return fmt.Errorf("delete availability rules: %w", err)
		}

		insert := `
			INSERT INTO availability_rules (revision_id, counselor_id, day_of_week, start_time, end_time, is_active)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at
		`
		for _, rule := range rules {
			rule.RevisionID = revisionID
			rule.CounselorID = counselorID

			err := r.db.DB(ctx).QueryRow(
				ctx, insert,
				revisionID,
				counselorID,
				rule.DayOfWeek,
				base.PgTime(rule.StartTime),
				base.PgTime(rule.EndTime),
				rule.IsActive,
			).Scan(&rule.ID, &rule.CreatedAt)
			if err != nil {
				return fmt.Errorf("insert availability rule: %w", err)
			}
		}

		r.logger.Debug("Availability rules replaced",
			zap.Int64("counselor_id", counselorID),
			zap.String("revision_id", revisionID.String()),
			zap.Int64("deleted", deleted),
			zap.Int("inserted", len(rules)),
		)
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	return revisionID, nil
}

// CounselorsWithActiveRules возвращает консультантов, у которых есть активные правила
func (r *AvailabilityRepository) CounselorsWithActiveRules(ctx context.Context) ([]int64, error) {
	query := `SELECT DISTINCT counselor_id FROM availability_rules WHERE is_active = true ORDER BY counselor_id`

	rows, err := r.db.DB(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get counselors with rules: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("scan counselor id: %w", err)
	}
	return ids, nil
}
