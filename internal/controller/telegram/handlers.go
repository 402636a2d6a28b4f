package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/campusmind/support_server/internal/model"
	"github.com/campusmind/support_server/internal/notify"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

const helpText = "Campus counseling bot\n\n" +
	"/start - link this chat using the button in your portal profile\n" +
	"/pending - bookings awaiting your decision (counselors)\n" +
	"/help - this message\n\n" +
	"New booking requests arrive here with Confirm and Cancel buttons."

func (c *BotController) handleStart(ctx context.Context, api API, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	code := startPayload(update.Message.Text)
	if code == "" {
		c.send(ctx, api, &bot.SendMessageParams{
			ChatID: chatID,
			Text: fmt.Sprintf("👋 Hi, %s!\n\n"+
				"Open \"Connect Telegram\" in your profile on the counseling portal "+
				"to link this chat and receive booking notifications here.",
				displayName(update.Message.From)),
		})
		return
	}

	profile, err := c.profiles.RedeemTelegramLink(ctx, code, chatID)
	var text string
	switch {
	case err == nil:
		text = fmt.Sprintf("✅ This chat is now linked to %s. Booking notifications will arrive here.", profileName(profile))
	case errors.Is(err, model.ErrNotFound):
		text = "❌ This link is invalid or has expired. Create a new one in your portal profile."
	case errors.Is(err, model.ErrInvalidInput):
		text = "⚠️ This chat is already linked to another profile."
	default:
		c.logger.Error("Failed to redeem link code", zap.Int64("chat_id", chatID), zap.Error(err))
		text = "❌ Something went wrong. Please try again later."
	}

	c.send(ctx, api, &bot.SendMessageParams{ChatID: chatID, Text: text})
}

// startPayload возвращает параметр deep link после /start
func startPayload(text string) string {
	fields := strings.Fields(text)
	if len(fields) < 2 || fields[0] != "/start" {
		return ""
	}
	return fields[1]
}

func profileName(p *model.Profile) string {
	if p.DisplayName == "" {
		return "your profile"
	}
	return p.DisplayName
}

func (c *BotController) handleHelp(ctx context.Context, api API, update *models.Update) {
	if update.Message == nil {
		return
	}

	c.send(ctx, api, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   helpText,
	})
}

func (c *BotController) handlePending(ctx context.Context, api API, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	counselor, ok := c.counselorFor(ctx, api, chatID)
	if !ok {
		return
	}

	bookings, err := c.bookings.PendingForCounselor(ctx, counselor.ID)
	if err != nil {
		c.logger.Error("Failed to load pending bookings",
			zap.Int64("counselor_id", counselor.ID),
			zap.Error(err))
		c.send(ctx, api, &bot.SendMessageParams{ChatID: chatID, Text: "❌ Something went wrong. Please try again later."})
		return
	}

	if len(bookings) == 0 {
		c.send(ctx, api, &bot.SendMessageParams{ChatID: chatID, Text: "✨ No bookings are waiting for you."})
		return
	}

	for _, b := range bookings {
		c.send(ctx, api, &bot.SendMessageParams{
			ChatID:      chatID,
			Text:        notify.BookingCard(b),
			ParseMode:   models.ParseModeHTML,
			ReplyMarkup: notify.DecisionKeyboard(b.ID),
		})
	}
}

func (c *BotController) handleCallback(ctx context.Context, api API, update *models.Update) {
	callback := update.CallbackQuery
	if callback == nil {
		return
	}

	data := callback.Data
	c.logger.Info("Routing callback",
		zap.String("data", data),
		zap.Int64("user_id", callback.From.ID))

	var decide func(ctx context.Context, counselorID, bookingID int64) (*model.Booking, error)
	var prefix string
	switch {
	case strings.HasPrefix(data, notify.CallbackConfirm):
		decide, prefix = c.bookings.Confirm, notify.CallbackConfirm
	case strings.HasPrefix(data, notify.CallbackCancel):
		decide, prefix = c.bookings.Cancel, notify.CallbackCancel
	default:
		c.answer(ctx, api, callback.ID, "", false)
		return
	}

	bookingID, err := notify.ParseCallbackID(data, prefix)
	if err != nil {
		c.answer(ctx, api, callback.ID, "❌ Invalid data", true)
		return
	}

	// Чат callback совпадает с личным чатом пользователя
	counselor, err := c.profiles.GetByTelegramChatID(ctx, callback.From.ID)
	if err != nil || counselor == nil || !counselor.IsCounselor() {
		c.answer(ctx, api, callback.ID, "🔒 Link this chat to your counselor profile first", true)
		return
	}

	booking, err := decide(ctx, counselor.ID, bookingID)
	if err != nil {
		c.answer(ctx, api, callback.ID, decisionError(err), true)
		if !isKnownDecisionError(err) {
			c.logger.Error("Failed to apply booking decision",
				zap.Int64("booking_id", bookingID),
				zap.Error(err))
		}
		return
	}

	c.answer(ctx, api, callback.ID, notify.StatusLabel(booking.Status), false)

	if msg := callback.Message.Message; msg != nil {
		_, err := api.EditMessageText(ctx, &bot.EditMessageTextParams{
			ChatID:    msg.Chat.ID,
			MessageID: msg.ID,
			Text:      notify.BookingCard(booking),
			ParseMode: models.ParseModeHTML,
		})
		if err != nil {
			c.logger.Warn("Failed to update booking message", zap.Error(err))
		}
	}
}

func (c *BotController) counselorFor(ctx context.Context, api API, chatID int64) (*model.Profile, bool) {
	profile, err := c.profiles.GetByTelegramChatID(ctx, chatID)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		c.logger.Error("Failed to find profile by chat", zap.Int64("chat_id", chatID), zap.Error(err))
		c.send(ctx, api, &bot.SendMessageParams{ChatID: chatID, Text: "❌ Something went wrong. Please try again later."})
		return nil, false
	}

	if profile == nil || !profile.IsCounselor() {
		c.send(ctx, api, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "🔒 This chat is not linked to a counselor profile. Use \"Connect Telegram\" in your portal profile.",
		})
		return nil, false
	}

	return profile, true
}

func decisionError(err error) string {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return "❌ Booking not found"
	case errors.Is(err, model.ErrForbidden):
		return "🔒 This booking belongs to another counselor"
	case errors.Is(err, model.ErrInvalidTransition):
		return "⚠️ This booking was already handled"
	default:
		return "❌ Something went wrong. Please try again later."
	}
}

func isKnownDecisionError(err error) bool {
	return errors.Is(err, model.ErrNotFound) ||
		errors.Is(err, model.ErrForbidden) ||
		errors.Is(err, model.ErrInvalidTransition)
}

func (c *BotController) send(ctx context.Context, api API, params *bot.SendMessageParams) {
	if _, err := api.SendMessage(ctx, params); err != nil {
		c.logger.Warn("Failed to send message", zap.Any("chat_id", params.ChatID), zap.Error(err))
	}
}

func (c *BotController) answer(ctx context.Context, api API, callbackID, text string, alert bool) {
	api.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       alert,
	})
}

func displayName(u *models.User) string {
	if u == nil || u.FirstName == "" {
		return "there"
	}
	return u.FirstName
}
