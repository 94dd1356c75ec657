package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const providerOpenAI = "openai"

// OpenAIConfig defines configuration options for the OpenAI engine.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float32
	Prompts     *PromptSet
	Logger      zerolog.Logger
}

// OpenAIEngine answers chat turns and writes lesson plans against the chat completion API.
type OpenAIEngine struct {
	client  *openai.Client
	cfg     OpenAIConfig
	prompts *PromptSet
	tracer  trace.Tracer
	logger  zerolog.Logger
}

// NewOpenAIEngine builds a new engine using the provided configuration.
func NewOpenAIEngine(cfg OpenAIConfig) (*OpenAIEngine, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1500
	}

	prompts := cfg.Prompts
	if prompts == nil {
		loaded, err := DefaultPrompts()
		if err != nil {
			return nil, err
		}
		prompts = loaded
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	return &OpenAIEngine{
		client:  openai.NewClientWithConfig(config),
		cfg:     cfg,
		prompts: prompts,
		tracer:  otel.Tracer("github.com/noah-isme/gradx-api/pkg/ai/openai"),
		logger:  cfg.Logger.With().Str("component", "openai_engine").Logger(),
	}, nil
}

// Converse replays the thread after a system message carrying the grading context.
func (e *OpenAIEngine) Converse(parent context.Context, prior []Turn, text string, cc ConversationContext) (string, error) {
	ctx, span := e.tracer.Start(parent, "openai.converse", trace.WithAttributes(
		attribute.String("model", e.cfg.Model),
		attribute.Int("prior_turns", len(prior)),
	))
	defer span.End()
	start := time.Now()
	defer observe(providerOpenAI, operationChat, start)

	system, err := renderChatSystem(e.prompts, cc)
	if err != nil {
		recordFailure(span, providerOpenAI, operationChat, err)
		return "", err
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(prior)+2)
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	for _, turn := range prior {
		role := openai.ChatMessageRoleUser
		if turn.Role == RoleModel {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: turn.Text})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: text})

	reply, err := e.complete(ctx, messages)
	if err != nil {
		err = fmt.Errorf("openai converse: %w", err)
		recordFailure(span, providerOpenAI, operationChat, err)
		return "", err
	}
	return reply, nil
}

// GeneratePlan writes a lesson plan as heading-marked text.
func (e *OpenAIEngine) GeneratePlan(parent context.Context, req PlanRequest) (string, error) {
	ctx, span := e.tracer.Start(parent, "openai.plan", trace.WithAttributes(
		attribute.String("model", e.cfg.Model),
		attribute.String("language", req.Language),
	))
	defer span.End()
	start := time.Now()
	defer observe(providerOpenAI, operationPlan, start)

	system, err := e.prompts.Render(PromptPlanSystem, nil)
	if err != nil {
		recordFailure(span, providerOpenAI, operationPlan, err)
		return "", err
	}
	user, err := e.prompts.Render(PromptPlanUser, req)
	if err != nil {
		recordFailure(span, providerOpenAI, operationPlan, err)
		return "", err
	}

	plan, err := e.complete(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: system},
		{Role: openai.ChatMessageRoleUser, Content: user},
	})
	if err != nil {
		err = fmt.Errorf("openai plan: %w", err)
		recordFailure(span, providerOpenAI, operationPlan, err)
		return "", err
	}
	return plan, nil
}

func (e *OpenAIEngine) complete(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.cfg.Model,
		MaxTokens:   e.cfg.MaxTokens,
		Temperature: e.cfg.Temperature,
		Messages:    messages,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", ErrUnusableResponse)
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("%w: empty reply", ErrUnusableResponse)
	}
	e.logger.Debug().Int("prompt_tokens", resp.Usage.PromptTokens).Int("completion_tokens", resp.Usage.CompletionTokens).Msg("openai completion")
	return content, nil
}
