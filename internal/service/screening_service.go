package service

import (
	"context"
	"fmt"

	"github.com/campusmind/support_server/internal/model"
	"go.uber.org/zap"
)

const maxItemScore = 3

type ScreeningService struct {
	screeningRepo ScreeningStore
	logger        *zap.Logger
}

func NewScreeningService(screeningRepo ScreeningStore, logger *zap.Logger) *ScreeningService {
	return &ScreeningService{
		screeningRepo: screeningRepo,
		logger:        logger,
	}
}

// Score считает сумму, уровень риска и кризисный флаг анкеты
func Score(screeningType model.ScreeningType, responses []int) (*model.ScreeningResult, error) {
	items := screeningType.ItemCount()
	if items == 0 {
		return nil, fmt.Errorf("screening type %q: %w", screeningType, model.ErrInvalidInput)
	}
	if len(responses) != items {
		return nil, fmt.Errorf("%s expects %d answers, got %d: %w", screeningType, items, len(responses), model.ErrInvalidInput)
	}

	total := 0
	for i, r := range responses {
		if r < 0 || r > maxItemScore {
			return nil, fmt.Errorf("answer %d out of range 0..%d: %w", i+1, maxItemScore, model.ErrInvalidInput)
		}
		total += r
	}

	result := &model.ScreeningResult{
		Type:       screeningType,
		Responses:  append([]int(nil), responses...),
		TotalScore: total,
		MaxScore:   items * maxItemScore,
	}

	switch screeningType {
	case model.ScreeningPHQ9:
		result.RiskLevel = riskLevel(total, 4, 14)
		// Вопрос 9 о мыслях о самоповреждении
		result.CrisisFlag = responses[8] > 0
	case model.ScreeningGAD7:
		result.RiskLevel = riskLevel(total, 4, 9)
	}

	return result, nil
}

func riskLevel(score, lowMax, mediumMax int) model.RiskLevel {
	switch {
	case score <= lowMax:
		return model.RiskLow
	case score <= mediumMax:
		return model.RiskMedium
	default:
		return model.RiskHigh
	}
}

// Submit оценивает и сохраняет анкету пользователя
func (s *ScreeningService) Submit(ctx context.Context, userID int64, screeningType model.ScreeningType, responses []int) (*model.ScreeningResult, error) {
	result, err := Score(screeningType, responses)
	if err != nil {
		return nil, err
	}
	result.UserID = userID

	if err := s.screeningRepo.Create(ctx, result); err != nil {
		return nil, fmt.Errorf("save screening: %w", err)
	}

	if result.CrisisFlag || result.RiskLevel == model.RiskHigh {
		s.logger.Warn("High risk screening submitted",
			zap.Int64("screening_id", result.ID),
			zap.String("type", string(screeningType)),
			zap.String("risk", string(result.RiskLevel)),
			zap.Bool("crisis", result.CrisisFlag),
		)
	}

	return result, nil
}

// History возвращает анкеты пользователя, новые первыми
func (s *ScreeningService) History(ctx context.Context, userID int64) ([]*model.ScreeningResult, error) {
	results, err := s.screeningRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get screenings: %w", err)
	}
	return results, nil
}
