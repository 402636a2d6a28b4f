package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/campusmind/support_server/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TelegramLinkTTL срок действия кода привязки
const TelegramLinkTTL = 15 * time.Minute

type ProfileService struct {
	profileRepo ProfileStore
	logger      *zap.Logger

	// now подменяется в тестах
	now func() time.Time
}

func NewProfileService(profileRepo ProfileStore, logger *zap.Logger) *ProfileService {
	return &ProfileService{
		profileRepo: profileRepo,
		logger:      logger,
		now:         time.Now,
	}
}

// GetProfile получает профиль по ID
func (s *ProfileService) GetProfile(ctx context.Context, id int64) (*model.Profile, error) {
	profile, err := s.profileRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if profile == nil {
		return nil, fmt.Errorf("profile %d: %w", id, model.ErrNotFound)
	}
	return profile, nil
}

// GetByTelegramChatID находит профиль по привязанному чату
func (s *ProfileService) GetByTelegramChatID(ctx context.Context, chatID int64) (*model.Profile, error) {
	profile, err := s.profileRepo.GetByTelegramChatID(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("get profile by chat: %w", err)
	}
	if profile == nil {
		return nil, fmt.Errorf("chat %d is not linked: %w", chatID, model.ErrNotFound)
	}
	return profile, nil
}

// ListCounselors возвращает активных консультантов для страницы выбора
func (s *ProfileService) ListCounselors(ctx context.Context) ([]*model.CounselorProfile, error) {
	counselors, err := s.profileRepo.ListActiveCounselors(ctx)
	if err != nil {
		return nil, fmt.Errorf("list counselors: %w", err)
	}
	return counselors, nil
}

// EnsureCounselorProfile создаёт профиль консультанта по умолчанию, если его ещё нет
func (s *ProfileService) EnsureCounselorProfile(ctx context.Context, userID int64) (*model.CounselorProfile, error) {
	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !profile.IsCounselor() {
		return nil, fmt.Errorf("profile %d is %s: %w", userID, profile.Role, model.ErrForbidden)
	}

	created, err := s.profileRepo.CreateCounselorProfileIfMissing(ctx, model.DefaultCounselorProfile(profile))
	if err != nil {
		return nil, fmt.Errorf("create counselor profile: %w", err)
	}
	if created {
		s.logger.Info("Default counselor profile created", zap.Int64("counselor_id", userID))
	}

	return s.profileRepo.GetCounselorProfile(ctx, userID)
}

// CreateTelegramLink выдаёт одноразовый код для привязки чата через бота
func (s *ProfileService) CreateTelegramLink(ctx context.Context, userID int64) (*model.TelegramLinkCode, error) {
	if _, err := s.GetProfile(ctx, userID); err != nil {
		return nil, err
	}

	code := &model.TelegramLinkCode{
		Code:      strings.ReplaceAll(uuid.NewString(), "-", ""),
		ProfileID: userID,
		ExpiresAt: s.now().Add(TelegramLinkTTL),
	}
	if err := s.profileRepo.CreateTelegramLinkCode(ctx, code); err != nil {
		return nil, fmt.Errorf("create telegram link: %w", err)
	}

	s.logger.Info("Telegram link code issued", zap.Int64("user_id", userID))
	return code, nil
}

// RedeemTelegramLink привязывает чат к профилю, выдавшему код
func (s *ProfileService) RedeemTelegramLink(ctx context.Context, code string, chatID int64) (*model.Profile, error) {
	if code == "" || chatID == 0 {
		return nil, fmt.Errorf("link code and chat id are required: %w", model.ErrInvalidInput)
	}

	profile, err := s.profileRepo.RedeemTelegramLinkCode(ctx, code, chatID, s.now())
	if err != nil {
		return nil, fmt.Errorf("redeem telegram link: %w", err)
	}
	if profile == nil {
		return nil, fmt.Errorf("link code is invalid, used or expired: %w", model.ErrNotFound)
	}

	s.logger.Info("Telegram chat linked",
		zap.Int64("user_id", profile.ID),
		zap.Int64("chat_id", chatID))
	return profile, nil
}

// UnlinkTelegram отключает уведомления в Telegram
func (s *ProfileService) UnlinkTelegram(ctx context.Context, userID int64) error {
	if err := s.profileRepo.SetTelegramChatID(ctx, userID, nil); err != nil {
		return fmt.Errorf("unlink telegram: %w", err)
	}

	s.logger.Info("Telegram chat unlinked", zap.Int64("user_id", userID))
	return nil
}
