package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/campusmind/support_server/internal/model"
	"github.com/campusmind/support_server/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const slotColumns = `id, counselor_id, slot_date, start_time, end_time, status, created_at, updated_at`

type SlotRepository struct {
	db  *base.Repository
	loc *time.Location
}

func NewSlotRepository(db *base.Repository, loc *time.Location) *SlotRepository {
	return &SlotRepository{db: db, loc: loc}
}

// CreateIfMissing создаёт слот, если такого (консультант, дата, начало, конец) ещё нет
// и он не пересекается с другим слотом консультанта.
// Возвращает false, если слот не создан; существующие слоты не изменяются.
func (r *SlotRepository) CreateIfMissing(ctx context.Context, slot *model.TimeSlot) (bool, error) {
	query := `
		INSERT INTO time_slots (counselor_id, slot_date, start_time, end_time, status)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT DO NOTHING
		RETURNING id, created_at, updated_at
	`

	err := r.db.DB(ctx).QueryRow(
		ctx, query,
		slot.CounselorID,
		base.PgDate(slot.Date),
		base.PgTime(slot.StartTime),
		base.PgTime(slot.EndTime),
		slot.Status,
	).Scan(&slot.ID, &slot.CreatedAt, &slot.UpdatedAt)

	if err != nil {
		if base.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("create slot: %w", err)
	}

	return true, nil
}

// GetByID получает слот по ID
func (r *SlotRepository) GetByID(ctx context.Context, id int64) (*model.TimeSlot, error) {
	query := `SELECT ` + slotColumns + ` FROM time_slots WHERE id = $1`

	slot, err := r.scan(r.db.DB(ctx).QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get slot by id: %w", err)
	}

	return slot, nil
}

// ListByCounselor получает слоты консультанта за диапазон дат [from, to] включительно
func (r *SlotRepository) ListByCounselor(ctx context.Context, counselorID int64, from, to time.Time) ([]*model.TimeSlot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM time_slots
		WHERE counselor_id = $1
		  AND slot_date >= $2
		  AND slot_date <= $3
		ORDER BY slot_date, start_time
	`

	rows, err := r.db.DB(ctx).Query(ctx, query, counselorID, base.PgDate(from), base.PgDate(to))
	if err != nil {
		return nil, fmt.Errorf("get slots by counselor: %w", err)
	}
	defer rows.Close()

	var slots []*model.TimeSlot
	for rows.Next() {
		slot, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, slot)
	}

	return slots, rows.Err()
}

// CountAvailableByDate считает свободные слоты по датам в диапазоне [from, to]
func (r *SlotRepository) CountAvailableByDate(ctx context.Context, counselorID int64, from, to time.Time) ([]model.DateCount, error) {
	query := `
		SELECT slot_date, count(*)
		FROM time_slots
		WHERE counselor_id = $1
		  AND status = 'available'
		  AND slot_date >= $2
		  AND slot_date <= $3
		GROUP BY slot_date
		ORDER BY slot_date
	`

	rows, err := r.db.DB(ctx).Query(ctx, query, counselorID, base.PgDate(from), base.PgDate(to))
	if err != nil {
		return nil, fmt.Errorf("count available slots: %w", err)
	}
	defer rows.Close()

	var counts []model.DateCount
	for rows.Next() {
		var (
			date  pgtype.Date
			count int
		)
		if err := rows.Scan(&date, &count); err != nil {
			return nil, fmt.Errorf("scan slot count: %w", err)
		}
		counts = append(counts, model.DateCount{
			Date:  base.FromPgDate(date, r.loc).Format(model.DateLayout),
			Count: count,
		})
	}

	return counts, rows.Err()
}

// CompareAndSetStatus меняет статус слота только если текущий статус равен from.
// Возвращает false, если ни одна строка не изменилась.
func (r *SlotRepository) CompareAndSetStatus(ctx context.Context, slotID int64, from, to model.SlotStatus) (bool, error) {
	query := `
		UPDATE time_slots
		SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3
	`

	affected, err := r.db.ExecAffected(ctx, query, to, slotID, from)
	if err != nil {
		return false, fmt.Errorf("update slot status: %w", err)
	}

	return affected == 1, nil
}

func (r *SlotRepository) scan(row pgx.Row) (*model.TimeSlot, error) {
	var (
		slot       model.TimeSlot
		date       pgtype.Date
		start, end pgtype.Time
	)
	err := row.Scan(
		&slot.ID,
		&slot.CounselorID,
		&date,
		&start,
		&end,
		&slot.Status,
		&slot.CreatedAt,
		&slot.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	slot.Date = base.FromPgDate(date, r.loc)
	slot.StartTime = base.FromPgTime(start)
	slot.EndTime = base.FromPgTime(end)
	return &slot, nil
}
