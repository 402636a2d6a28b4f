// Package assistant generates supportive chat replies with a Gemini model.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/campusmind/support_server/internal/model"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const DefaultModel = "gemini-1.5-flash"

const requestTimeout = 30 * time.Second

var ErrEmptyReply = errors.New("model returned empty reply")

const systemPrompt = `You are a compassionate AI mental health support assistant for Indian college students.
Respond in a culturally sensitive, supportive manner. The user is speaking in %s.

Guidelines:
- Be empathetic and non-judgmental
- Provide practical coping strategies
- Encourage professional help when needed
- Use appropriate language for the user's preferred language
- Focus on mental wellness and emotional support
- If crisis indicators are mentioned, gently suggest professional resources

Respond in the same language as the user's message, or in English if mixed.`

type Config struct {
	APIKey string
	Model  string
}

type Gemini struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

func NewGemini(ctx context.Context, cfg Config, logger *zap.Logger) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key is empty")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Gemini{
		client: client,
		model:  cfg.Model,
		logger: logger,
	}, nil
}

// Generate отправляет историю и новое сообщение в модель
func (g *Gemini) Generate(ctx context.Context, history []model.ChatTurn, message, language string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(SystemPrompt(language), genai.RoleUser),
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, Contents(history, message), config)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyReply
	}

	g.logger.Debug("Chat reply generated",
		zap.String("model", g.model),
		zap.Int("history", len(history)),
		zap.Duration("took", time.Since(start)))

	return text, nil
}

func SystemPrompt(language string) string {
	if language == "" {
		language = "English"
	}
	return fmt.Sprintf(systemPrompt, language)
}

// Contents переводит историю чата в формат запроса модели
func Contents(history []model.ChatTurn, message string) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, turn := range history {
		role := genai.Role(genai.RoleUser)
		if turn.Role == model.ChatRoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Text, role))
	}
	return append(contents, genai.NewContentFromText(message, genai.RoleUser))
}
