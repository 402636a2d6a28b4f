package model

import (
	"time"

	"github.com/google/uuid"
)

// AvailabilityRule is a recurring weekly window in which a counselor accepts bookings.
type AvailabilityRule struct {
	ID          int64     `json:"id"`
	RevisionID  uuid.UUID `json:"revision_id"` // общий идентификатор набора правил одного сохранения
	CounselorID int64     `json:"counselor_id"`
	DayOfWeek   int       `json:"day_of_week"` // 0 = Sunday, 6 = Saturday
	StartTime   TimeOfDay `json:"start_time"`
	EndTime     TimeOfDay `json:"end_time"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Weekday returns the rule's day as time.Weekday.
func (r *AvailabilityRule) Weekday() time.Weekday {
	return time.Weekday(r.DayOfWeek)
}

// Overlaps reports whether two rules share any instant on the same weekday.
func (r *AvailabilityRule) Overlaps(other *AvailabilityRule) bool {
	if r.DayOfWeek != other.DayOfWeek {
		return false
	}
	return r.StartTime < other.EndTime && other.StartTime < r.EndTime
}
