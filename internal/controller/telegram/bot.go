// Package telegram is the counselor-facing Telegram bot. It links chats for
// notifications through one-time deep links and lets counselors act on
// pending bookings.
package telegram

import (
	"context"

	"github.com/campusmind/support_server/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// API подмножество методов *bot.Bot, используемых контроллером
type API interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	EditMessageText(ctx context.Context, params *bot.EditMessageTextParams) (*models.Message, error)
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
}

type ProfileFinder interface {
	GetByTelegramChatID(ctx context.Context, chatID int64) (*model.Profile, error)
	RedeemTelegramLink(ctx context.Context, code string, chatID int64) (*model.Profile, error)
}

type BookingDecider interface {
	PendingForCounselor(ctx context.Context, counselorID int64) ([]*model.Booking, error)
	Confirm(ctx context.Context, counselorID, bookingID int64) (*model.Booking, error)
	Cancel(ctx context.Context, counselorID, bookingID int64) (*model.Booking, error)
}

type BotController struct {
	bot      *bot.Bot
	profiles ProfileFinder
	bookings BookingDecider
	logger   *zap.Logger
}

func NewBotController(botInstance *bot.Bot, profiles ProfileFinder, bookings BookingDecider, logger *zap.Logger) *BotController {
	return &BotController{
		bot:      botInstance,
		profiles: profiles,
		bookings: bookings,
		logger:   logger,
	}
}

// RegisterHandlers регистрирует команды и обработчик inline кнопок
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	// /start <код> приходит из ссылки t.me/<бот>?start=<код>
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypePrefix, c.wrap(c.handleStart))
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, c.wrap(c.handleHelp))
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/pending", bot.MatchTypeExact, c.wrap(c.handlePending))
	c.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "", bot.MatchTypePrefix, c.wrap(c.handleCallback))

	return c.setCommands(ctx)
}

func (c *BotController) wrap(h func(ctx context.Context, api API, update *models.Update)) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		h(ctx, b, update)
	}
}

func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "🔗 Link this chat to your portal profile"},
		{Command: "pending", Description: "⏳ Bookings awaiting your decision"},
		{Command: "help", Description: "❓ Help"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})
	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("Bot commands menu set")
	return nil
}

// Start запускает long polling и блокируется до отмены ctx
func (c *BotController) Start(ctx context.Context) {
	c.logger.Info("Starting telegram bot")
	c.bot.Start(ctx)
}
