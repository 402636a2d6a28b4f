package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/campusmind/support_server/internal/model"
	"github.com/campusmind/support_server/internal/service/servicetest"
	"go.uber.org/zap"
)

const (
	counselorID      = int64(1)
	otherCounselorID = int64(2)
	studentID        = int64(10)
	otherStudentID   = int64(11)
)

type recordingNotifier struct {
	mu      sync.Mutex
	created []int64
	changes []string
}

func (n *recordingNotifier) BookingCreated(_ context.Context, b *model.Booking) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.created = append(n.created, b.ID)
}

func (n *recordingNotifier) BookingStatusChanged(_ context.Context, b *model.Booking, from model.BookingStatus) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changes = append(n.changes, string(from)+"->"+string(b.Status))
}

type testEnv struct {
	db           *servicetest.DB
	calendar     *Calendar
	notifier     *recordingNotifier
	availability *AvailabilityService
	slots        *SlotService
	bookings     *BookingService
}

// 2 июня 2025 года, понедельник
var testNow = time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := servicetest.NewDB()
	db.Now = func() time.Time { return testNow }
	db.AddProfile(&model.Profile{ID: counselorID, Role: model.RoleCounselor, DisplayName: "Dr. Rao"})
	db.AddProfile(&model.Profile{ID: otherCounselorID, Role: model.RoleCounselor, DisplayName: "Dr. Iyer"})
	db.AddProfile(&model.Profile{ID: studentID, Role: model.RoleStudent, DisplayName: "Asha"})
	db.AddProfile(&model.Profile{ID: otherStudentID, Role: model.RoleStudent, DisplayName: "Vikram"})

	calendar := NewCalendar(time.UTC, DefaultHorizonDays)
	calendar.Now = func() time.Time { return testNow }

	notifier := &recordingNotifier{}
	logger := zap.NewNop()

	return &testEnv{
		db:           db,
		calendar:     calendar,
		notifier:     notifier,
		availability: NewAvailabilityService(db, db.Profiles(), db.Rules(), db.Slots(), calendar, logger),
		slots:        NewSlotService(db.Slots(), calendar, logger),
		bookings:     NewBookingService(db, db.Slots(), db.Bookings(), notifier, calendar, logger),
	}
}

func date(s string) time.Time {
	d, err := model.ParseDate(s, time.UTC)
	if err != nil {
		panic(err)
	}
	return d
}

func rule(day int, start, end string) *model.AvailabilityRule {
	return &model.AvailabilityRule{
		DayOfWeek: day,
		StartTime: model.MustTimeOfDay(start),
		EndTime:   model.MustTimeOfDay(end),
		IsActive:  true,
	}
}

// addSlot кладёт свободный слот консультанта на дату
func (e *testEnv) addSlot(counselor int64, day, start, end string) *model.TimeSlot {
	return e.db.AddSlot(&model.TimeSlot{
		CounselorID: counselor,
		Date:        date(day),
		StartTime:   model.MustTimeOfDay(start),
		EndTime:     model.MustTimeOfDay(end),
		Status:      model.SlotStatusAvailable,
	})
}

func (e *testEnv) book(t *testing.T, slot *model.TimeSlot) *model.Booking {
	t.Helper()
	b, err := e.bookings.Create(context.Background(), CreateBookingInput{
		Requester:         model.IdentifiedStudent{StudentID: studentID},
		CounselorID:       slot.CounselorID,
		TimeSlotID:        slot.ID,
		CommunicationMode: model.CommunicationVideo,
	})
	if err != nil {
		t.Fatalf("book slot %d: %v", slot.ID, err)
	}
	return b
}
