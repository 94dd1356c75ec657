package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/gradx-api/internal/models"
	"github.com/noah-isme/gradx-api/internal/observability"
	"github.com/noah-isme/gradx-api/pkg/ai"
)

// DefaultChatTimeout bounds a single chat turn.
const DefaultChatTimeout = 60 * time.Second

// ChatRefinement is the conversation thread scoped to the active grading result.
// Every Seed or Clear starts a new generation; replies for an older generation are dropped.
type ChatRefinement interface {
	Send(ctx context.Context, generation uint64, text string, cc ai.ConversationContext) (models.ChatMessage, error)
	Seed(text string)
	Clear()
	Generation() uint64
	Thread() []models.ChatMessage
	Len() int
}

type chatRefinement struct {
	mu         sync.Mutex
	turn       sync.Mutex
	thread     []models.ChatMessage
	generation uint64
	engine     ai.Conversationalist
	timeout    time.Duration
	logger     zerolog.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

// NewChatRefinement constructs an empty thread answered by engine.
func NewChatRefinement(engine ai.Conversationalist, timeout time.Duration, logger zerolog.Logger) ChatRefinement {
	if timeout <= 0 {
		timeout = DefaultChatTimeout
	}
	return &chatRefinement{
		thread:  []models.ChatMessage{},
		engine:  engine,
		timeout: timeout,
		logger:  logger.With().Str("component", "chat_refinement").Logger(),
		tracer:  otel.Tracer("github.com/noah-isme/gradx-api/internal/service/chat"),
		now:     time.Now,
	}
}

// Send runs one turn. Turns are serialized: a second call waits until the first completes.
// The user message is appended before the call and kept when the call fails.
// Text is stored and forwarded as typed; escaping happens where it is rendered.
func (c *chatRefinement) Send(ctx context.Context, generation uint64, text string, cc ai.ConversationContext) (models.ChatMessage, error) {
	clean := strings.TrimSpace(text)
	if clean == "" {
		return models.ChatMessage{}, ErrEmptyMessage
	}

	c.turn.Lock()
	defer c.turn.Unlock()

	c.mu.Lock()
	if c.generation != generation {
		c.mu.Unlock()
		observability.ChatTurns().WithLabelValues("stale").Inc()
		return models.ChatMessage{}, ErrStaleChat
	}
	prior := toTurns(c.thread)
	c.thread = append(c.thread, models.ChatMessage{Role: models.ChatRoleUser, Text: clean, Timestamp: c.now()})
	c.mu.Unlock()

	ctx, span := c.tracer.Start(ctx, "chat.turn", trace.WithAttributes(
		attribute.Int("chat.prior_turns", len(prior)),
	))
	defer span.End()

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reply, err := c.engine.Converse(callCtx, prior, clean, cc)
	if err == nil && strings.TrimSpace(reply) == "" {
		err = ai.ErrUnusableResponse
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "chat turn failed")
		observability.ChatTurns().WithLabelValues("failure").Inc()
		c.logger.Error().Err(err).Msg("chat turn failed")
		return models.ChatMessage{}, ErrChatTurnFailed
	}

	message := models.ChatMessage{Role: models.ChatRoleModel, Text: strings.TrimSpace(reply), Timestamp: c.now()}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != generation {
		observability.ChatTurns().WithLabelValues("stale").Inc()
		return models.ChatMessage{}, ErrStaleChat
	}
	c.thread = append(c.thread, message)
	observability.ChatTurns().WithLabelValues("success").Inc()
	return message, nil
}

func (c *chatRefinement) Seed(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.thread = []models.ChatMessage{{Role: models.ChatRoleModel, Text: text, Timestamp: c.now()}}
}

func (c *chatRefinement) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.thread = []models.ChatMessage{}
}

func (c *chatRefinement) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

func (c *chatRefinement) Thread() []models.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	thread := make([]models.ChatMessage, len(c.thread))
	copy(thread, c.thread)
	return thread
}

func (c *chatRefinement) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.thread)
}

func toTurns(thread []models.ChatMessage) []ai.Turn {
	turns := make([]ai.Turn, 0, len(thread))
	for _, message := range thread {
		role := ai.RoleUser
		if message.Role == models.ChatRoleModel {
			role = ai.RoleModel
		}
		turns = append(turns, ai.Turn{Role: role, Text: message.Text})
	}
	return turns
}
