package model

import "time"

type SlotStatus string

const (
	SlotStatusAvailable SlotStatus = "available"
	SlotStatusBooked    SlotStatus = "booked"
	SlotStatusBlocked   SlotStatus = "blocked"
)

// TimeSlot is a dated, bookable interval for one counselor.
type TimeSlot struct {
	ID          int64      `json:"id"`
	CounselorID int64      `json:"counselor_id"`
	Date        time.Time  `json:"date"` // полночь в часовом поясе сервиса
	StartTime   TimeOfDay  `json:"start_time"`
	EndTime     TimeOfDay  `json:"end_time"`
	Status      SlotStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// StartsAt returns the wall-clock start of the slot in the date's location.
func (s *TimeSlot) StartsAt() time.Time {
	return s.StartTime.On(s.Date)
}

// EndsAt returns the wall-clock end of the slot in the date's location.
func (s *TimeSlot) EndsAt() time.Time {
	return s.EndTime.On(s.Date)
}

// DateKey formats the slot date as YYYY-MM-DD.
func (s *TimeSlot) DateKey() string {
	return s.Date.Format(DateLayout)
}

// DateCount is the number of available slots on one date.
type DateCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}
