// Package notify delivers booking events to counselors and students.
package notify

import (
	"context"

	"github.com/campusmind/support_server/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// MessageSender подмножество *bot.Bot, которое нужно уведомлениям
type MessageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

type ProfileLookup interface {
	GetByID(ctx context.Context, id int64) (*model.Profile, error)
}

// Telegram отправляет уведомления в привязанные чаты. Ошибки доставки
// только логируются.
type Telegram struct {
	sender   MessageSender
	profiles ProfileLookup
	logger   *zap.Logger
}

func NewTelegram(sender MessageSender, profiles ProfileLookup, logger *zap.Logger) *Telegram {
	return &Telegram{
		sender:   sender,
		profiles: profiles,
		logger:   logger,
	}
}

func (t *Telegram) BookingCreated(ctx context.Context, booking *model.Booking) {
	chatID, ok := t.chatOf(ctx, booking.CounselorID)
	if !ok {
		return
	}

	t.send(ctx, booking, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        NewBookingText(booking),
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: DecisionKeyboard(booking.ID),
	})
}

func (t *Telegram) BookingStatusChanged(ctx context.Context, booking *model.Booking, from model.BookingStatus) {
	studentID, identified := booking.StudentID()
	if !identified {
		return
	}

	chatID, ok := t.chatOf(ctx, studentID)
	if !ok {
		return
	}

	t.send(ctx, booking, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      StatusChangedText(booking),
		ParseMode: models.ParseModeHTML,
	})
}

func (t *Telegram) chatOf(ctx context.Context, profileID int64) (int64, bool) {
	profile, err := t.profiles.GetByID(ctx, profileID)
	if err != nil {
		t.logger.Warn("Failed to load profile for notification",
			zap.Int64("profile_id", profileID),
			zap.Error(err))
		return 0, false
	}
	if profile == nil || profile.TelegramChatID == nil {
		return 0, false
	}
	return *profile.TelegramChatID, true
}

func (t *Telegram) send(ctx context.Context, booking *model.Booking, params *bot.SendMessageParams) {
	if _, err := t.sender.SendMessage(ctx, params); err != nil {
		t.logger.Warn("Failed to send booking notification",
			zap.Int64("booking_id", booking.ID),
			zap.Any("chat_id", params.ChatID),
			zap.Error(err))
	}
}

// Log пишет события бронирований в лог, когда Telegram не настроен
type Log struct {
	logger *zap.Logger
}

func NewLog(logger *zap.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) BookingCreated(_ context.Context, booking *model.Booking) {
	l.logger.Info("Booking created",
		zap.Int64("booking_id", booking.ID),
		zap.Int64("counselor_id", booking.CounselorID),
		zap.Time("appointment_at", booking.AppointmentAt))
}

func (l *Log) BookingStatusChanged(_ context.Context, booking *model.Booking, from model.BookingStatus) {
	l.logger.Info("Booking status changed",
		zap.Int64("booking_id", booking.ID),
		zap.String("from", string(from)),
		zap.String("to", string(booking.Status)))
}
