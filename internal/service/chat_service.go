package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/campusmind/support_server/internal/model"
	"github.com/campusmind/support_server/internal/moderation"
	"go.uber.org/zap"
)

// FallbackReply отдаётся пользователю, когда модель недоступна
const FallbackReply = "I'm sorry, I'm having trouble responding right now. Please try again, or if you need immediate support, please contact the KIRAN helpline at 1800-599-0019."

// historyTurns сколько последних реплик уходит в модель
const historyTurns = 5

type Generator interface {
	Generate(ctx context.Context, history []model.ChatTurn, message, language string) (string, error)
}

type ChatReply struct {
	Reply          string                     `json:"reply"`
	Fallback       bool                       `json:"fallback"`
	CrisisDetected bool                       `json:"crisis_detected"`
	Crisis         *moderation.CrisisResponse `json:"crisis,omitempty"`
}

type ChatService struct {
	generator Generator
	logger    *zap.Logger
}

// NewChatService создаёт сервис чата; generator может быть nil, тогда всегда отдаётся FallbackReply
func NewChatService(generator Generator, logger *zap.Logger) *ChatService {
	return &ChatService{
		generator: generator,
		logger:    logger,
	}
}

// Reply отвечает на сообщение с учётом последних реплик. Ошибки модели не
// возвращаются вызывающему, вместо ответа модели отдаётся FallbackReply.
func (s *ChatService) Reply(ctx context.Context, history []model.ChatTurn, message, language string) (*ChatReply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("message required: %w", model.ErrInvalidInput)
	}
	if language == "" {
		language = "English"
	}

	out := &ChatReply{}

	verdict := moderation.Moderate(message)
	if verdict.CrisisDetected {
		crisis := moderation.NewCrisisResponse("")
		out.CrisisDetected = true
		out.Crisis = &crisis
	}

	if len(history) > historyTurns {
		history = history[len(history)-historyTurns:]
	}

	if s.generator == nil {
		out.Reply = FallbackReply
		out.Fallback = true
		return out, nil
	}

	text, err := s.generator.Generate(ctx, history, message, language)
	if err != nil || strings.TrimSpace(text) == "" {
		s.logger.Error("Chat generation failed", zap.Error(err))
		out.Reply = FallbackReply
		out.Fallback = true
		return out, nil
	}

	out.Reply = text
	return out, nil
}
