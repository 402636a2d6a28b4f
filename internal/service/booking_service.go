package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/campusmind/support_server/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	maxReasonLength      = 1000
	maxAnonymousIDLength = 64
)

type BookingService struct {
	tx          Transactor
	slotRepo    SlotStore
	bookingRepo BookingStore
	notifier    Notifier
	calendar    *Calendar
	logger      *zap.Logger
}

func NewBookingService(
	tx Transactor,
	slotRepo SlotStore,
	bookingRepo BookingStore,
	notifier Notifier,
	calendar *Calendar,
	logger *zap.Logger,
) *BookingService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &BookingService{
		tx:          tx,
		slotRepo:    slotRepo,
		bookingRepo: bookingRepo,
		notifier:    notifier,
		calendar:    calendar,
		logger:      logger,
	}
}

// CreateBookingInput данные заявки на сессию
type CreateBookingInput struct {
	Requester         model.Requester
	CounselorID       int64
	TimeSlotID        int64
	Reason            string
	CommunicationMode model.CommunicationMode
}

// NewAnonymousDisplayID генерирует отображаемое имя для анонимной записи
func NewAnonymousDisplayID() string {
	return "Anonymous_" + strings.ToUpper(uuid.NewString()[:6])
}

// Create бронирует слот. Перевод слота в booked и создание бронирования
// выполняются одной условной командой; из двух одновременных заявок на один
// слот успешна ровно одна, вторая получает model.ErrSlotUnavailable.
func (s *BookingService) Create(ctx context.Context, in CreateBookingInput) (*model.Booking, error) {
	if err := validateBookingInput(&in); err != nil {
		return nil, err
	}

	slot, err := s.slotRepo.GetByID(ctx, in.TimeSlotID)
	if err != nil {
		return nil, fmt.Errorf("get slot: %w", err)
	}

	if slot == nil {
		return nil, fmt.Errorf("slot %d: %w", in.TimeSlotID, model.ErrNotFound)
	}

	if slot.CounselorID != in.CounselorID {
		return nil, fmt.Errorf("slot %d does not belong to counselor %d: %w", in.TimeSlotID, in.CounselorID, model.ErrInvalidInput)
	}

	booking := &model.Booking{
		Requester:         in.Requester,
		CounselorID:       in.CounselorID,
		TimeSlotID:        in.TimeSlotID,
		Reason:            in.Reason,
		CommunicationMode: in.CommunicationMode,
	}

	// Повторять эту запись нельзя: конфликт означает, что слот занят
	err = s.bookingRepo.CreateClaimingSlot(ctx, booking, s.calendar.Now().In(s.calendar.Location))
	if err != nil {
		if errors.Is(err, model.ErrSlotUnavailable) {
			s.logger.Info("Slot claim lost",
				zap.Int64("slot_id", in.TimeSlotID),
				zap.Int64("counselor_id", in.CounselorID),
			)
			return nil, fmt.Errorf("slot %d: %w", in.TimeSlotID, model.ErrSlotUnavailable)
		}
		return nil, fmt.Errorf("create booking: %w", err)
	}

	slot.Status = model.SlotStatusBooked
	booking.Slot = slot
	_, identified := booking.StudentID()

	s.logger.Info("Slot booked",
		zap.Int64("booking_id", booking.ID),
		zap.Int64("slot_id", in.TimeSlotID),
		zap.Int64("counselor_id", in.CounselorID),
		zap.String("mode", string(in.CommunicationMode)),
		zap.Bool("anonymous", !identified),
	)

	s.notifier.BookingCreated(ctx, booking)

	return booking, nil
}

// Confirm подтверждает pending бронирование
func (s *BookingService) Confirm(ctx context.Context, counselorID, bookingID int64) (*model.Booking, error) {
	return s.transition(ctx, counselorID, bookingID, model.BookingStatusConfirmed)
}

// Cancel отменяет pending бронирование и освобождает слот
func (s *BookingService) Cancel(ctx context.Context, counselorID, bookingID int64) (*model.Booking, error) {
	return s.transition(ctx, counselorID, bookingID, model.BookingStatusCancelled)
}

// Complete отмечает подтверждённую сессию проведённой
func (s *BookingService) Complete(ctx context.Context, counselorID, bookingID int64) (*model.Booking, error) {
	return s.transition(ctx, counselorID, bookingID, model.BookingStatusCompleted)
}

func (s *BookingService) transition(ctx context.Context, counselorID, bookingID int64, to model.BookingStatus) (*model.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}

	if booking == nil {
		return nil, fmt.Errorf("booking %d: %w", bookingID, model.ErrNotFound)
	}

	if booking.CounselorID != counselorID {
		return nil, fmt.Errorf("booking %d does not belong to counselor: %w", bookingID, model.ErrForbidden)
	}

	from := booking.Status
	if !from.CanTransitionTo(to) {
		return nil, fmt.Errorf("booking %d is %s, cannot become %s: %w", bookingID, from, to, model.ErrInvalidTransition)
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		ok, err := s.bookingRepo.CompareAndSetStatus(ctx, bookingID, counselorID, from, to)
		if err != nil {
			return fmt.Errorf("update booking status: %w", err)
		}
		if !ok {
			return fmt.Errorf("booking %d changed concurrently: %w", bookingID, model.ErrInvalidTransition)
		}

		if to != model.BookingStatusCancelled {
			return nil
		}

		// Освобождаем слот, чтобы он снова стал доступен для записи
		released, err := s.slotRepo.CompareAndSetStatus(ctx, booking.TimeSlotID, model.SlotStatusBooked, model.SlotStatusAvailable)
		if err != nil {
			return fmt.Errorf("release slot: %w", err)
		}
		if !released {
			s.logger.Warn("Cancelled booking slot was not booked",
				zap.Int64("booking_id", bookingID),
				zap.Int64("slot_id", booking.TimeSlotID))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	booking.Status = to

	s.logger.Info("Booking status changed",
		zap.Int64("booking_id", bookingID),
		zap.Int64("counselor_id", counselorID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)

	s.notifier.BookingStatusChanged(ctx, booking, from)

	return booking, nil
}

// Get возвращает бронирование консультанту-владельцу или студенту, который его создал
func (s *BookingService) Get(ctx context.Context, actor *model.Profile, bookingID int64) (*model.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}

	if booking == nil {
		return nil, fmt.Errorf("booking %d: %w", bookingID, model.ErrNotFound)
	}

	if studentID, ok := booking.StudentID(); ok && studentID == actor.ID {
		return booking, nil
	}
	if booking.CounselorID == actor.ID {
		return booking, nil
	}

	return nil, fmt.Errorf("booking %d: %w", bookingID, model.ErrForbidden)
}

// ListForCounselor получает бронирования консультанта по времени приёма
func (s *BookingService) ListForCounselor(ctx context.Context, counselorID int64) ([]*model.Booking, error) {
	return s.bookingRepo.GetByCounselorID(ctx, counselorID)
}

// ListForStudent получает бронирования студента по времени приёма
func (s *BookingService) ListForStudent(ctx context.Context, studentID int64) ([]*model.Booking, error) {
	return s.bookingRepo.GetByStudentID(ctx, studentID)
}

// PendingForCounselor получает бронирования, ожидающие решения консультанта
func (s *BookingService) PendingForCounselor(ctx context.Context, counselorID int64) ([]*model.Booking, error) {
	return s.bookingRepo.GetPendingByCounselorID(ctx, counselorID)
}

// Summary считает бронирования консультанта по статусам
func (s *BookingService) Summary(ctx context.Context, counselorID int64) (*model.BookingSummary, error) {
	return s.bookingRepo.SummaryByCounselor(ctx, counselorID)
}

func validateBookingInput(in *CreateBookingInput) error {
	switch r := in.Requester.(type) {
	case model.IdentifiedStudent:
		if r.StudentID <= 0 {
			return fmt.Errorf("student id required: %w", model.ErrInvalidInput)
		}
	case model.AnonymousStudent:
		r.DisplayID = strings.TrimSpace(r.DisplayID)
		if r.DisplayID == "" {
			r.DisplayID = NewAnonymousDisplayID()
		}
		if utf8.RuneCountInString(r.DisplayID) > maxAnonymousIDLength {
			return fmt.Errorf("anonymous id longer than %d: %w", maxAnonymousIDLength, model.ErrInvalidInput)
		}
		in.Requester = r
	default:
		return fmt.Errorf("requester required: %w", model.ErrInvalidInput)
	}

	if in.CounselorID <= 0 || in.TimeSlotID <= 0 {
		return fmt.Errorf("counselor and slot required: %w", model.ErrInvalidInput)
	}

	if !in.CommunicationMode.Valid() {
		return fmt.Errorf("communication mode %q: %w", in.CommunicationMode, model.ErrInvalidInput)
	}

	in.Reason = strings.TrimSpace(in.Reason)
	if utf8.RuneCountInString(in.Reason) > maxReasonLength {
		return fmt.Errorf("reason longer than %d: %w", maxReasonLength, model.ErrInvalidInput)
	}

	return nil
}
