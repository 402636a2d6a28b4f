package service

import (
	"context"
	"fmt"
	"time"

	"github.com/campusmind/support_server/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AvailabilityService struct {
	tx          Transactor
	profileRepo ProfileStore
	ruleRepo    AvailabilityStore
	slotRepo    SlotStore
	calendar    *Calendar
	logger      *zap.Logger
}

func NewAvailabilityService(
	tx Transactor,
	profileRepo ProfileStore,
	ruleRepo AvailabilityStore,
	slotRepo SlotStore,
	calendar *Calendar,
	logger *zap.Logger,
) *AvailabilityService {
	return &AvailabilityService{
		tx:          tx,
		profileRepo: profileRepo,
		ruleRepo:    ruleRepo,
		slotRepo:    slotRepo,
		calendar:    calendar,
		logger:      logger,
	}
}

// SaveResult итог сохранения набора правил
type SaveResult struct {
	RevisionID   uuid.UUID                 `json:"revision_id"`
	Rules        []*model.AvailabilityRule `json:"rules"`
	SlotsCreated int                       `json:"slots_created"`
}

// GetRules возвращает правила консультанта
func (s *AvailabilityService) GetRules(ctx context.Context, counselorID int64) ([]*model.AvailabilityRule, error) {
	if _, err := s.requireCounselor(ctx, counselorID); err != nil {
		return nil, err
	}
	return s.ruleRepo.GetByCounselorID(ctx, counselorID)
}

// SaveRules заменяет весь набор правил консультанта и генерирует слоты на горизонт
func (s *AvailabilityService) SaveRules(ctx context.Context, counselorID int64, rules []*model.AvailabilityRule) (*SaveResult, error) {
	counselor, err := s.requireCounselor(ctx, counselorID)
	if err != nil {
		return nil, err
	}

	if err := ValidateRules(rules); err != nil {
		return nil, err
	}

	var revisionID uuid.UUID
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		created, err := s.profileRepo.CreateCounselorProfileIfMissing(ctx, model.DefaultCounselorProfile(counselor))
		if err != nil {
			return fmt.Errorf("ensure counselor profile: %w", err)
		}
		if created {
			s.logger.Info("Counselor profile created",
				zap.Int64("counselor_id", counselorID))
		}

		revisionID, err = s.ruleRepo.Replace(ctx, counselorID, rules)
		if err != nil {
			return fmt.Errorf("replace availability rules: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Availability saved",
		zap.Int64("counselor_id", counselorID),
		zap.String("revision_id", revisionID.String()),
		zap.Int("rules", len(rules)),
	)

	// Правила уже сохранены, поэтому ошибки отдельных дат только логируются
	count := s.generateHorizon(ctx, counselorID, rules)

	return &SaveResult{
		RevisionID:   revisionID,
		Rules:        rules,
		SlotsCreated: count,
	}, nil
}

// GenerateForDate создаёт недостающие слоты консультанта на одну дату
func (s *AvailabilityService) GenerateForDate(ctx context.Context, counselorID int64, date time.Time) ([]*model.TimeSlot, error) {
	if _, err := s.requireCounselor(ctx, counselorID); err != nil {
		return nil, err
	}

	date = model.DateOnly(date, s.calendar.Location)
	if date.Before(s.calendar.Today()) {
		return nil, fmt.Errorf("cannot generate slots in the past: %w", model.ErrInvalidInput)
	}

	rules, err := s.ruleRepo.GetByCounselorID(ctx, counselorID)
	if err != nil {
		return nil, fmt.Errorf("get availability rules: %w", err)
	}

	return s.generateForDate(ctx, counselorID, date, rules)
}

// RefreshHorizon догенерирует слоты для всех консультантов с активными правилами.
// Вызывается периодически, чтобы окно в HorizonDays дней сдвигалось вместе с датой.
func (s *AvailabilityService) RefreshHorizon(ctx context.Context) error {
	counselorIDs, err := s.ruleRepo.CounselorsWithActiveRules(ctx)
	if err != nil {
		return fmt.Errorf("get counselors with rules: %w", err)
	}

	total := 0
	for _, counselorID := range counselorIDs {
		rules, err := s.ruleRepo.GetByCounselorID(ctx, counselorID)
		if err != nil {
			s.logger.Error("Failed to load availability rules",
				zap.Error(err),
				zap.Int64("counselor_id", counselorID))
			continue
		}
		total += s.generateHorizon(ctx, counselorID, rules)
	}

	s.logger.Info("Slot horizon refreshed",
		zap.Int("counselors", len(counselorIDs)),
		zap.Int("slots_created", total),
	)

	return nil
}

func (s *AvailabilityService) generateHorizon(ctx context.Context, counselorID int64, rules []*model.AvailabilityRule) int {
	count := 0
	for _, date := range s.calendar.Horizon() {
		created, err := s.generateForDate(ctx, counselorID, date, rules)
		if err != nil {
			s.logger.Warn("Failed to generate slots for date",
				zap.Error(err),
				zap.Int64("counselor_id", counselorID),
				zap.String("date", date.Format(model.DateLayout)),
			)
			continue
		}
		count += len(created)
	}
	return count
}

// generateForDate возвращает только реально созданные слоты. Слоты прошлых
// наборов правил не меняются, поэтому новый слот, пересекающийся с уже
// существующим слотом этой даты, пропускается.
func (s *AvailabilityService) generateForDate(ctx context.Context, counselorID int64, date time.Time, rules []*model.AvailabilityRule) ([]*model.TimeSlot, error) {
	generated := SlotsForDate(counselorID, date, rules)
	if len(generated) == 0 {
		return nil, nil
	}

	existing, err := s.slotRepo.ListByCounselor(ctx, counselorID, date, date)
	if err != nil {
		return nil, fmt.Errorf("list slots %s: %w", date.Format(model.DateLayout), err)
	}

	var created []*model.TimeSlot
	for _, slot := range generated {
		if other := overlapping(slot, existing); other != nil {
			if other.StartTime != slot.StartTime || other.EndTime != slot.EndTime {
				s.logger.Info("Slot overlaps existing slot, skipping",
					zap.Int64("counselor_id", counselorID),
					zap.String("date", date.Format(model.DateLayout)),
					zap.Stringer("start_time", slot.StartTime),
					zap.Int64("existing_slot_id", other.ID),
				)
			}
			continue
		}

		ok, err := s.slotRepo.CreateIfMissing(ctx, slot)
		if err != nil {
			return created, fmt.Errorf("create slot %s %s: %w", date.Format(model.DateLayout), slot.StartTime, err)
		}
		if !ok {
			s.logger.Debug("Slot already exists, skipping",
				zap.Int64("counselor_id", counselorID),
				zap.String("date", date.Format(model.DateLayout)),
				zap.Stringer("start_time", slot.StartTime),
			)
			continue
		}
		created = append(created, slot)
		existing = append(existing, slot)
	}
	return created, nil
}

func overlapping(slot *model.TimeSlot, existing []*model.TimeSlot) *model.TimeSlot {
	for _, other := range existing {
		if slot.StartTime < other.EndTime && other.StartTime < slot.EndTime {
			return other
		}
	}
	return nil
}

func (s *AvailabilityService) requireCounselor(ctx context.Context, counselorID int64) (*model.Profile, error) {
	profile, err := s.profileRepo.GetByID(ctx, counselorID)
	if err != nil {
		return nil, fmt.Errorf("get counselor: %w", err)
	}
	if profile == nil {
		return nil, fmt.Errorf("counselor %d: %w", counselorID, model.ErrNotFound)
	}
	if !profile.IsCounselor() {
		return nil, fmt.Errorf("profile %d is not a counselor: %w", counselorID, model.ErrForbidden)
	}
	return profile, nil
}
