package ai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/option"
)

const providerGemini = "gemini"

// GeminiConfig defines configuration options for the Gemini engine.
type GeminiConfig struct {
	APIKey   string
	Model    string
	Attempts int
	Prompts  *PromptSet
	Logger   zerolog.Logger
}

// GeminiEngine grades scripts, answers follow-up questions and writes lesson plans through Gemini.
type GeminiEngine struct {
	client  *genai.Client
	cfg     GeminiConfig
	prompts *PromptSet
	tracer  trace.Tracer
	logger  zerolog.Logger
}

// NewGeminiEngine creates the Gemini client shared by every request.
func NewGeminiEngine(ctx context.Context, cfg GeminiConfig) (*GeminiEngine, error) {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	cfg.Model = strings.TrimSpace(cfg.Model)
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash"
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = 3
	}

	prompts := cfg.Prompts
	if prompts == nil {
		loaded, err := DefaultPrompts()
		if err != nil {
			return nil, err
		}
		prompts = loaded
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GeminiEngine{
		client:  client,
		cfg:     cfg,
		prompts: prompts,
		tracer:  otel.Tracer("github.com/noah-isme/gradx-api/pkg/ai/gemini"),
		logger:  cfg.Logger.With().Str("component", "gemini_engine").Logger(),
	}, nil
}

// Close releases the underlying client connection.
func (e *GeminiEngine) Close() error {
	return e.client.Close()
}

// Grade sends the answer script and rubric to Gemini and returns the validated evaluation.
func (e *GeminiEngine) Grade(parent context.Context, req GradeRequest) (GradeResult, error) {
	ctx, span := e.tracer.Start(parent, "gemini.grade", trace.WithAttributes(
		attribute.String("model", e.cfg.Model),
		attribute.Bool("rubric_is_file", req.RubricIsFile),
	))
	defer span.End()
	start := time.Now()
	defer observe(providerGemini, operationGrade, start)

	result, err := e.grade(ctx, req)
	if err != nil {
		recordFailure(span, providerGemini, operationGrade, err)
		return GradeResult{}, err
	}
	span.SetAttributes(attribute.Int("questions", len(result.Breakdown)))
	return result, nil
}

func (e *GeminiEngine) grade(ctx context.Context, req GradeRequest) (GradeResult, error) {
	script, err := base64.StdEncoding.DecodeString(req.StudentScript)
	if err != nil {
		return GradeResult{}, fmt.Errorf("gemini grade: decode student script: %w", err)
	}

	system, err := e.prompts.Render(PromptGradingSystem, nil)
	if err != nil {
		return GradeResult{}, err
	}
	user, err := e.prompts.Render(PromptGradingUser, req)
	if err != nil {
		return GradeResult{}, err
	}

	model := e.client.GenerativeModel(e.cfg.Model)
	model.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(0),
		ResponseMIMEType: "application/json",
	}
	model.SystemInstruction = genai.NewUserContent(
		genai.Text(system),
		genai.Text("Response JSON Schema:\n"+GradingSchema()),
	)

	parts := []genai.Part{
		genai.Blob{MIMEType: "application/pdf", Data: script},
	}
	if req.RubricIsFile {
		rubric, err := base64.StdEncoding.DecodeString(req.Rubric)
		if err != nil {
			return GradeResult{}, fmt.Errorf("gemini grade: decode rubric: %w", err)
		}
		parts = append(parts, genai.Blob{MIMEType: "application/pdf", Data: rubric})
	}
	parts = append(parts, genai.Text(user))

	text, err := e.generate(ctx, model, parts)
	if err != nil {
		return GradeResult{}, fmt.Errorf("gemini grade: %w", err)
	}
	return ParseGradeResponse(text)
}

// Converse answers a follow-up question with the grading context re-sent as system instruction.
func (e *GeminiEngine) Converse(parent context.Context, prior []Turn, text string, cc ConversationContext) (string, error) {
	ctx, span := e.tracer.Start(parent, "gemini.converse", trace.WithAttributes(
		attribute.String("model", e.cfg.Model),
		attribute.Int("prior_turns", len(prior)),
	))
	defer span.End()
	start := time.Now()
	defer observe(providerGemini, operationChat, start)

	reply, err := e.converse(ctx, prior, text, cc)
	if err != nil {
		recordFailure(span, providerGemini, operationChat, err)
		return "", err
	}
	return reply, nil
}

func (e *GeminiEngine) converse(ctx context.Context, prior []Turn, text string, cc ConversationContext) (string, error) {
	system, err := renderChatSystem(e.prompts, cc)
	if err != nil {
		return "", err
	}
	opening, err := e.prompts.Render(PromptChatOpening, nil)
	if err != nil {
		return "", err
	}

	model := e.client.GenerativeModel(e.cfg.Model)
	model.SystemInstruction = genai.NewUserContent(genai.Text(system))

	history := geminiHistory(prior, opening)
	parts := []genai.Part{genai.Text(text)}
	if last := len(history) - 1; last >= 0 && history[last].Role == "user" {
		parts = append(history[last].Parts, parts...)
		history = history[:last]
	}

	session := model.StartChat()
	session.History = history

	var lastErr error
	for attempt := 1; attempt <= e.cfg.Attempts; attempt++ {
		resp, err := session.SendMessage(ctx, parts...)
		if err != nil {
			lastErr = err
			// SendMessage leaves the history untouched on error, so the retry resends the same turn.
			if waitErr := backoff(ctx, attempt); waitErr != nil {
				return "", waitErr
			}
			continue
		}
		reply := strings.TrimSpace(firstText(resp))
		if reply == "" {
			return "", fmt.Errorf("gemini converse: %w: empty reply", ErrUnusableResponse)
		}
		return reply, nil
	}
	return "", fmt.Errorf("gemini converse: %w", lastErr)
}

// GeneratePlan writes a lesson plan as heading-marked text.
func (e *GeminiEngine) GeneratePlan(parent context.Context, req PlanRequest) (string, error) {
	ctx, span := e.tracer.Start(parent, "gemini.plan", trace.WithAttributes(
		attribute.String("model", e.cfg.Model),
		attribute.String("language", req.Language),
	))
	defer span.End()
	start := time.Now()
	defer observe(providerGemini, operationPlan, start)

	system, err := e.prompts.Render(PromptPlanSystem, nil)
	if err != nil {
		recordFailure(span, providerGemini, operationPlan, err)
		return "", err
	}
	user, err := e.prompts.Render(PromptPlanUser, req)
	if err != nil {
		recordFailure(span, providerGemini, operationPlan, err)
		return "", err
	}

	model := e.client.GenerativeModel(e.cfg.Model)
	model.SystemInstruction = genai.NewUserContent(genai.Text(system))

	plan, err := e.generate(ctx, model, []genai.Part{genai.Text(user)})
	if err != nil {
		err = fmt.Errorf("gemini plan: %w", err)
		recordFailure(span, providerGemini, operationPlan, err)
		return "", err
	}
	return strings.TrimSpace(plan), nil
}

func (e *GeminiEngine) generate(ctx context.Context, model *genai.GenerativeModel, parts []genai.Part) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= e.cfg.Attempts; attempt++ {
		resp, err := model.GenerateContent(ctx, parts...)
		if err != nil {
			lastErr = err
			e.logger.Warn().Err(err).Int("attempt", attempt).Msg("gemini request failed")
			if waitErr := backoff(ctx, attempt); waitErr != nil {
				return "", waitErr
			}
			continue
		}
		text := firstText(resp)
		if strings.TrimSpace(text) == "" {
			return "", fmt.Errorf("%w: empty response", ErrUnusableResponse)
		}
		return text, nil
	}
	return "", lastErr
}

// geminiHistory maps prior turns to Gemini contents. The history must open with a user turn
// and alternate roles, so an opening turn is prepended and consecutive turns of one role are merged.
func geminiHistory(prior []Turn, opening string) []*genai.Content {
	history := make([]*genai.Content, 0, len(prior)+1)
	if len(prior) == 0 || prior[0].Role != RoleUser {
		history = append(history, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(opening)}})
	}
	for _, turn := range prior {
		role := "user"
		if turn.Role == RoleModel {
			role = "model"
		}
		if last := len(history) - 1; last >= 0 && history[last].Role == role {
			history[last].Parts = append(history[last].Parts, genai.Text(turn.Text))
			continue
		}
		history = append(history, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(turn.Text)}})
	}
	return history
}

func renderChatSystem(prompts *PromptSet, cc ConversationContext) (string, error) {
	payload, err := json.MarshalIndent(cc.Result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode grading context: %w", err)
	}
	return prompts.Render(PromptChatSystem, map[string]string{
		"RubricSummary": cc.RubricSummary,
		"ResultJSON":    string(payload),
	})
}

func backoff(ctx context.Context, attempt int) error {
	timer := time.NewTimer(time.Duration(attempt) * 300 * time.Millisecond)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
