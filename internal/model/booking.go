package model

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"   // Ожидает подтверждения консультанта
	BookingStatusConfirmed BookingStatus = "confirmed" // Подтверждено
	BookingStatusCompleted BookingStatus = "completed" // Сессия проведена
	BookingStatusCancelled BookingStatus = "cancelled" // Отменено консультантом
)

// IsTerminal reports whether no further transition is possible.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCompleted || s == BookingStatusCancelled
}

// CanTransitionTo reports whether the state machine allows from -> to.
func (s BookingStatus) CanTransitionTo(to BookingStatus) bool {
	switch s {
	case BookingStatusPending:
		return to == BookingStatusConfirmed || to == BookingStatusCancelled
	case BookingStatusConfirmed:
		return to == BookingStatusCompleted
	}
	return false
}

type CommunicationMode string

const (
	CommunicationVideo CommunicationMode = "video"
	CommunicationAudio CommunicationMode = "audio"
	CommunicationChat  CommunicationMode = "chat"
)

func (m CommunicationMode) Valid() bool {
	switch m {
	case CommunicationVideo, CommunicationAudio, CommunicationChat:
		return true
	}
	return false
}

// Requester identifies who submitted a booking: either a signed-in student
// or an anonymous display identity. Exactly one variant is set per booking.
type Requester interface {
	isRequester()
}

// IdentifiedStudent books under their own profile.
type IdentifiedStudent struct {
	StudentID int64 `json:"student_id"`
}

// AnonymousStudent books under a display id only.
type AnonymousStudent struct {
	DisplayID string `json:"display_id"`
}

func (IdentifiedStudent) isRequester() {}
func (AnonymousStudent) isRequester()  {}

type Booking struct {
	ID                int64             `json:"id"`
	Requester         Requester         `json:"requester"`
	CounselorID       int64             `json:"counselor_id"`
	TimeSlotID        int64             `json:"time_slot_id"`
	AppointmentAt     time.Time         `json:"appointment_at"`
	Status            BookingStatus     `json:"status"`
	Reason            string            `json:"reason,omitempty"`
	CommunicationMode CommunicationMode `json:"communication_mode"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`

	// Заполняется сервисом для уведомлений (не из БД)
	Slot *TimeSlot `json:"slot,omitempty"`
}

// StudentID returns the identified student id, if any.
func (b *Booking) StudentID() (int64, bool) {
	if s, ok := b.Requester.(IdentifiedStudent); ok {
		return s.StudentID, true
	}
	return 0, false
}

// DisplayName is what the counselor sees for the requester.
func (b *Booking) DisplayName() string {
	if a, ok := b.Requester.(AnonymousStudent); ok {
		return a.DisplayID
	}
	return ""
}

// BookingSummary aggregates a counselor's bookings by status.
type BookingSummary struct {
	Pending   int `json:"pending"`
	Confirmed int `json:"confirmed"`
	Completed int `json:"completed"`
	Cancelled int `json:"cancelled"`
}
