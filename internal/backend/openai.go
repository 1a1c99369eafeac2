package backend

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/vietvo371/wopai-assistant/internal/models"
)

// catalogPrompt teaches the model the recommendation markdown format
// the parser understands. Sections are separated by --- lines and each
// starts with a ## title.
const catalogPrompt = `Bạn là trợ lý phim. Khi đề xuất phim, trả lời đúng định dạng markdown sau:

# Đề Xuất Phim
Giới thiệu ngắn.
---
## <tên phim>
**Năm phát hành**: <năm>
**Thể loại**: <thể loại>
**Loại phim**: <phim lẻ hoặc phim bộ>
**Tóm tắt phim**: <một câu tóm tắt>
---

Với câu hỏi thường, trả lời tự nhiên bằng markdown.`

const billingPrompt = `Bạn là trợ lý dịch vụ VIP. Tư vấn về các gói dịch vụ và thanh toán bằng markdown, ngắn gọn và thân thiện.`

// OpenAIAssistant serves completions straight from an OpenAI chat
// model when no platform backend is configured. The model keeps no
// preference profile, so interaction and reset calls acknowledge
// without doing anything; liked state still lives locally.
type OpenAIAssistant struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float64
	logger      *zap.Logger
}

func NewOpenAIAssistant(apiKey, model string, maxTokens int, temperature float64, logger *zap.Logger) *OpenAIAssistant {
	return &OpenAIAssistant{
		client:      openai.NewClient(apiKey),
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		logger:      logger,
	}
}

func (a *OpenAIAssistant) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	system := catalogPrompt
	if req.Mode == models.ModeBilling {
		system = billingPrompt
	}

	resp, err := a.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: a.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: system,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: req.Message,
				},
			},
			MaxTokens:   a.maxTokens,
			Temperature: float32(a.temperature),
		},
	)
	if err != nil {
		a.logger.Error("Failed to get completion", zap.Error(err))
		return nil, fmt.Errorf("completion request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("completion returned no choices")
	}

	markdown := true
	return &ChatResponse{
		Success:    true,
		Response:   resp.Choices[0].Message.Content,
		IsMarkdown: &markdown,
	}, nil
}

func (a *OpenAIAssistant) SendInteraction(ctx context.Context, interaction Interaction) error {
	a.logger.Debug("no remote profile for interaction",
		zap.Int("movie_id", interaction.MovieID),
		zap.String("type", interaction.InteractionType))
	return nil
}

func (a *OpenAIAssistant) ResetPreferences(ctx context.Context, req ResetRequest) error {
	a.logger.Debug("no remote profile to reset")
	return nil
}
