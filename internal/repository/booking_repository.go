package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/campusmind/support_server/internal/model"
	"github.com/campusmind/support_server/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

const bookingColumns = `id, student_id, anonymous_id, counselor_id, time_slot_id, appointment_at, status, reason, communication_mode, created_at, updated_at`

type BookingRepository struct {
	db  *base.Repository
	loc *time.Location
}

func NewBookingRepository(db *base.Repository, loc *time.Location) *BookingRepository {
	return &BookingRepository{db: db, loc: loc}
}

// CreateClaimingSlot одной командой переводит слот available -> booked и создаёт
// бронирование в статусе pending. Если слот уже не свободен или его начало
// не позже now (настенное время сервиса), ни одна строка не вставляется и
// возвращается model.ErrSlotUnavailable.
func (r *BookingRepository) CreateClaimingSlot(ctx context.Context, booking *model.Booking, now time.Time) error {
	query := `
		WITH claimed AS (
			UPDATE time_slots
			SET status = 'booked', updated_at = now()
			WHERE id = $1
			  AND counselor_id = $2
			  AND status = 'available'
			  AND slot_date + start_time > $3
			RETURNING id, counselor_id, slot_date + start_time AS appointment_at
		)
		INSERT INTO bookings (student_id, anonymous_id, counselor_id, time_slot_id, appointment_at, status, reason, communication_mode)
		SELECT $4::bigint, $5::text, claimed.counselor_id, claimed.id, claimed.appointment_at, 'pending', $6::text, $7::text
		FROM claimed
		RETURNING id, appointment_at, status, created_at, updated_at
	`

	studentID, anonymousID := requesterColumns(booking.Requester)

	var appointmentAt time.Time
	err := r.db.DB(ctx).QueryRow(
		ctx, query,
		booking.TimeSlotID,
		booking.CounselorID,
		base.PgTimestamp(now.In(r.loc)),
		studentID,
		anonymousID,
		booking.Reason,
		string(booking.CommunicationMode),
	).Scan(&booking.ID, &appointmentAt, &booking.Status, &booking.CreatedAt, &booking.UpdatedAt)

	if err != nil {
		if base.IsNotFound(err) || base.IsUniqueViolation(err) {
			return model.ErrSlotUnavailable
		}
		return fmt.Errorf("create booking: %w", err)
	}

	booking.AppointmentAt = r.wallClock(appointmentAt)
	return nil
}

// GetByID получает бронирование по ID
func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := r.scan(r.db.DB(ctx).QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking by id: %w", err)
	}

	return booking, nil
}

// GetByCounselorID получает бронирования консультанта по времени приёма
func (r *BookingRepository) GetByCounselorID(ctx context.Context, counselorID int64) ([]*model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE counselor_id = $1
		ORDER BY appointment_at, id
	`
	return r.list(ctx, "get bookings by counselor", query, counselorID)
}

// GetByStudentID получает бронирования студента по времени приёма
func (r *BookingRepository) GetByStudentID(ctx context.Context, studentID int64) ([]*model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE student_id = $1
		ORDER BY appointment_at, id
	`
	return r.list(ctx, "get bookings by student", query, studentID)
}

// GetPendingByCounselorID получает все pending бронирования консультанта
func (r *BookingRepository) GetPendingByCounselorID(ctx context.Context, counselorID int64) ([]*model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE counselor_id = $1 AND status = 'pending'
		ORDER BY appointment_at, id
	`
	return r.list(ctx, "get pending bookings by counselor", query, counselorID)
}

// CompareAndSetStatus переводит бронирование из from в to, только если оно
// принадлежит консультанту и всё ещё находится в статусе from.
func (r *BookingRepository) CompareAndSetStatus(ctx context.Context, id, counselorID int64, from, to model.BookingStatus) (bool, error) {
	query := `
		UPDATE bookings
		SET status = $1, updated_at = now()
		WHERE id = $2 AND counselor_id = $3 AND status = $4
	`

	affected, err := r.db.ExecAffected(ctx, query, to, id, counselorID, from)
	if err != nil {
		return false, fmt.Errorf("update booking status: %w", err)
	}

	return affected == 1, nil
}

// SummaryByCounselor считает бронирования консультанта по статусам
func (r *BookingRepository) SummaryByCounselor(ctx context.Context, counselorID int64) (*model.BookingSummary, error) {
	query := `SELECT status, count(*) FROM bookings WHERE counselor_id = $1 GROUP BY status`

	rows, err := r.db.DB(ctx).Query(ctx, query, counselorID)
	if err != nil {
		return nil, fmt.Errorf("get booking summary: %w", err)
	}
	defer rows.Close()

	summary := &model.BookingSummary{}
	for rows.Next() {
		var (
			status model.BookingStatus
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan booking summary: %w", err)
		}
		switch status {
		case model.BookingStatusPending:
			summary.Pending = count
		case model.BookingStatusConfirmed:
			summary.Confirmed = count
		case model.BookingStatusCompleted:
			summary.Completed = count
		case model.BookingStatusCancelled:
			summary.Cancelled = count
		}
	}

	return summary, rows.Err()
}

func (r *BookingRepository) list(ctx context.Context, op, query string, args ...any) ([]*model.Booking, error) {
	rows, err := r.db.DB(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var bookings []*model.Booking
	for rows.Next() {
		booking, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}

	return bookings, rows.Err()
}

func (r *BookingRepository) scan(row pgx.Row) (*model.Booking, error) {
	var (
		booking       model.Booking
		studentID     *int64
		anonymousID   *string
		appointmentAt time.Time
	)
	err := row.Scan(
		&booking.ID,
		&studentID,
		&anonymousID,
		&booking.CounselorID,
		&booking.TimeSlotID,
		&appointmentAt,
		&booking.Status,
		&booking.Reason,
		&booking.CommunicationMode,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	switch {
	case studentID != nil:
		booking.Requester = model.IdentifiedStudent{StudentID: *studentID}
	case anonymousID != nil:
		booking.Requester = model.AnonymousStudent{DisplayID: *anonymousID}
	}
	booking.AppointmentAt = r.wallClock(appointmentAt)
	return &booking, nil
}

// wallClock переносит TIMESTAMP без зоны в часовой пояс сервиса
func (r *BookingRepository) wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, r.loc)
}

func requesterColumns(req model.Requester) (*int64, *string) {
	switch v := req.(type) {
	case model.IdentifiedStudent:
		return &v.StudentID, nil
	case model.AnonymousStudent:
		return nil, &v.DisplayID
	}
	return nil, nil
}
