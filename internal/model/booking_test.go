package model

import "testing"

func TestBookingStatusTransitions(t *testing.T) {
	all := []BookingStatus{BookingStatusPending, BookingStatusConfirmed, BookingStatusCompleted, BookingStatusCancelled}
	allowed := map[BookingStatus][]BookingStatus{
		BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled},
		BookingStatusConfirmed: {BookingStatusCompleted},
	}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			if got := from.CanTransitionTo(to); got != want {
				t.Errorf("%s -> %s = %v, want %v", from, to, got, want)
			}
		}
	}

	for _, s := range []BookingStatus{BookingStatusCompleted, BookingStatusCancelled} {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
}

func TestCommunicationModeValid(t *testing.T) {
	for _, m := range []CommunicationMode{CommunicationVideo, CommunicationAudio, CommunicationChat} {
		if !m.Valid() {
			t.Errorf("%s should be valid", m)
		}
	}
	if CommunicationMode("carrier-pigeon").Valid() {
		t.Error("unknown mode should be invalid")
	}
}

func TestBookingRequester(t *testing.T) {
	identified := &Booking{Requester: IdentifiedStudent{StudentID: 42}}
	if id, ok := identified.StudentID(); !ok || id != 42 {
		t.Errorf("StudentID = %d, %v", id, ok)
	}
	if identified.DisplayName() != "" {
		t.Error("identified booking has no display name")
	}

	anon := &Booking{Requester: AnonymousStudent{DisplayID: "Anonymous_7F3A2B"}}
	if _, ok := anon.StudentID(); ok {
		t.Error("anonymous booking has no student id")
	}
	if anon.DisplayName() != "Anonymous_7F3A2B" {
		t.Errorf("DisplayName = %q", anon.DisplayName())
	}
}

func TestAvailabilityRuleOverlaps(t *testing.T) {
	rule := func(day int, start, end string) *AvailabilityRule {
		return &AvailabilityRule{DayOfWeek: day, StartTime: MustTimeOfDay(start), EndTime: MustTimeOfDay(end), IsActive: true}
	}

	tests := []struct {
		name string
		a, b *AvailabilityRule
		want bool
	}{
		{"same window", rule(1, "09:00", "10:00"), rule(1, "09:00", "10:00"), true},
		{"partial", rule(1, "09:00", "10:00"), rule(1, "09:30", "10:30"), true},
		{"adjacent", rule(1, "09:00", "10:00"), rule(1, "10:00", "11:00"), false},
		{"other day", rule(1, "09:00", "10:00"), rule(2, "09:00", "10:00"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Overlaps(tt.b); got != tt.want {
				t.Errorf("Overlaps = %v, want %v", got, tt.want)
			}
		})
	}
}
