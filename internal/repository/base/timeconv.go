package base

import (
	"time"

	"github.com/campusmind/support_server/internal/model"
	"github.com/jackc/pgx/v5/pgtype"
)

// PgTime конвертирует время суток в значение для колонки TIME
func PgTime(t model.TimeOfDay) pgtype.Time {
	return pgtype.Time{Microseconds: int64(t.Duration() / time.Microsecond), Valid: true}
}

// FromPgTime конвертирует значение колонки TIME во время суток
func FromPgTime(t pgtype.Time) model.TimeOfDay {
	return model.TimeOfDay(time.Duration(t.Microseconds) * time.Microsecond / time.Minute)
}

// PgDate конвертирует календарную дату в значение для колонки DATE
func PgDate(d time.Time) pgtype.Date {
	return pgtype.Date{Time: time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC), Valid: true}
}

// PgTimestamp передаёт настенное время для колонки TIMESTAMP без зоны
func PgTimestamp(t time.Time) pgtype.Timestamp {
	return pgtype.Timestamp{
		Time:  time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC),
		Valid: true,
	}
}

// FromPgDate переносит дату из БД в указанный часовой пояс
func FromPgDate(d pgtype.Date, loc *time.Location) time.Time {
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, loc)
}
