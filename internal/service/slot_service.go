package service

import (
	"context"
	"fmt"
	"time"

	"github.com/campusmind/support_server/internal/model"
	"go.uber.org/zap"
)

// maxRangeDays ограничивает диапазон одного запроса слотов
const maxRangeDays = 92

type SlotService struct {
	slotRepo SlotStore
	calendar *Calendar
	logger   *zap.Logger
}

func NewSlotService(slotRepo SlotStore, calendar *Calendar, logger *zap.Logger) *SlotService {
	return &SlotService{
		slotRepo: slotRepo,
		calendar: calendar,
		logger:   logger,
	}
}

// ListSlots возвращает слоты консультанта за [from, to], упорядоченные по дате и началу
func (s *SlotService) ListSlots(ctx context.Context, counselorID int64, from, to time.Time) ([]*model.TimeSlot, error) {
	if err := checkRange(from, to); err != nil {
		return nil, err
	}
	return s.slotRepo.ListByCounselor(ctx, counselorID, from, to)
}

// AvailableCounts считает свободные слоты по датам; даты раньше сегодняшней не учитываются
func (s *SlotService) AvailableCounts(ctx context.Context, counselorID int64, from, to time.Time) ([]model.DateCount, error) {
	if err := checkRange(from, to); err != nil {
		return nil, err
	}

	today := s.calendar.Today()
	if from.Before(today) {
		from = today
	}
	if to.Before(from) {
		return []model.DateCount{}, nil
	}

	return s.slotRepo.CountAvailableByDate(ctx, counselorID, from, to)
}

// GetSlot получает слот по ID
func (s *SlotService) GetSlot(ctx context.Context, slotID int64) (*model.TimeSlot, error) {
	slot, err := s.slotRepo.GetByID(ctx, slotID)
	if err != nil {
		return nil, fmt.Errorf("get slot: %w", err)
	}
	if slot == nil {
		return nil, fmt.Errorf("slot %d: %w", slotID, model.ErrNotFound)
	}
	return slot, nil
}

// Block закрывает свободный слот для бронирования
func (s *SlotService) Block(ctx context.Context, counselorID, slotID int64) (*model.TimeSlot, error) {
	return s.override(ctx, counselorID, slotID, model.SlotStatusAvailable, model.SlotStatusBlocked)
}

// Unblock возвращает заблокированный слот в свободные
func (s *SlotService) Unblock(ctx context.Context, counselorID, slotID int64) (*model.TimeSlot, error) {
	return s.override(ctx, counselorID, slotID, model.SlotStatusBlocked, model.SlotStatusAvailable)
}

func (s *SlotService) override(ctx context.Context, counselorID, slotID int64, from, to model.SlotStatus) (*model.TimeSlot, error) {
	slot, err := s.GetSlot(ctx, slotID)
	if err != nil {
		return nil, err
	}

	if slot.CounselorID != counselorID {
		return nil, fmt.Errorf("slot %d does not belong to counselor: %w", slotID, model.ErrForbidden)
	}

	if slot.Status == model.SlotStatusBooked {
		return nil, fmt.Errorf("slot %d: %w", slotID, model.ErrSlotBooked)
	}

	ok, err := s.slotRepo.CompareAndSetStatus(ctx, slotID, from, to)
	if err != nil {
		return nil, fmt.Errorf("update slot status: %w", err)
	}

	if !ok {
		// Статус изменился между чтением и записью, перечитываем чтобы объяснить почему
		current, err := s.GetSlot(ctx, slotID)
		if err != nil {
			return nil, err
		}
		if current.Status == model.SlotStatusBooked {
			return nil, fmt.Errorf("slot %d: %w", slotID, model.ErrSlotBooked)
		}
		return nil, fmt.Errorf("slot %d is %s, expected %s: %w", slotID, current.Status, from, model.ErrInvalidTransition)
	}

	slot.Status = to

	s.logger.Info("Slot status overridden",
		zap.Int64("slot_id", slotID),
		zap.Int64("counselor_id", counselorID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)

	return slot, nil
}

func checkRange(from, to time.Time) error {
	if to.Before(from) {
		return fmt.Errorf("range end before start: %w", model.ErrInvalidInput)
	}
	if to.Sub(from) > maxRangeDays*24*time.Hour {
		return fmt.Errorf("range longer than %d days: %w", maxRangeDays, model.ErrInvalidInput)
	}
	return nil
}
