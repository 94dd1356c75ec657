package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/gradx-api/internal/models"
	"github.com/noah-isme/gradx-api/internal/observability"
	"github.com/noah-isme/gradx-api/internal/repository"
)

// HistoryStorageKey is the key under which the ledger is stored as one JSON list.
const HistoryStorageKey = "gradx_history"

// HistoryLedger is the append-only, most-recent-first record of completed gradings.
type HistoryLedger interface {
	LoadAll(ctx context.Context) []models.HistoryItem
	Append(ctx context.Context, item models.HistoryItem) (models.HistoryItem, error)
	Items() []models.HistoryItem
	Get(id string) (models.HistoryItem, bool)
	Len() int
}

type historyLedger struct {
	mu     sync.RWMutex
	store  repository.KeyValueStore
	items  []models.HistoryItem
	logger zerolog.Logger
	tracer trace.Tracer
	now    func() time.Time
}

// NewHistoryLedger constructs a ledger backed by the given key-value store. Call LoadAll before use.
func NewHistoryLedger(store repository.KeyValueStore, logger zerolog.Logger) HistoryLedger {
	return &historyLedger{
		store:  store,
		items:  []models.HistoryItem{},
		logger: logger.With().Str("component", "history_ledger").Logger(),
		tracer: otel.Tracer("github.com/noah-isme/gradx-api/internal/service/history"),
		now:    time.Now,
	}
}

// LoadAll replaces the in-memory list with the stored one. Missing, unreadable or corrupt
// storage yields an empty ledger; the failure is only logged.
func (l *historyLedger) LoadAll(ctx context.Context) []models.HistoryItem {
	ctx, span := l.tracer.Start(ctx, "history.load")
	defer span.End()

	items := l.read(ctx, span)

	l.mu.Lock()
	l.items = items
	l.mu.Unlock()

	observability.HistoryEntries().Set(float64(len(items)))
	span.SetAttributes(attribute.Int("history.count", len(items)))
	return cloneHistory(items)
}

func (l *historyLedger) read(ctx context.Context, span trace.Span) []models.HistoryItem {
	raw, err := l.store.Get(ctx, HistoryStorageKey)
	if err != nil {
		if !errors.Is(err, repository.ErrKeyNotFound) {
			span.RecordError(err)
			l.logger.Warn().Err(err).Msg("history unreadable, starting with an empty ledger")
		}
		return []models.HistoryItem{}
	}

	var items []models.HistoryItem
	if err := json.Unmarshal(raw, &items); err != nil {
		span.RecordError(err)
		l.logger.Warn().Err(err).Msg("history corrupt, starting with an empty ledger")
		return []models.HistoryItem{}
	}
	if items == nil {
		items = []models.HistoryItem{}
	}
	return items
}

// Append prepends the item and rewrites the stored list. On a write failure the entry stays
// in memory and ErrHistoryPersist is returned; the next append rewrites everything.
func (l *historyLedger) Append(ctx context.Context, item models.HistoryItem) (models.HistoryItem, error) {
	ctx, span := l.tracer.Start(ctx, "history.append")
	defer span.End()

	if item.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			id = uuid.New()
		}
		item.ID = id.String()
	}
	if item.Date == "" {
		item.Date = l.now().Format(models.HistoryDateLayout)
	}
	if strings.TrimSpace(item.TestName) == "" {
		item.TestName = models.DefaultTestName
	}
	item = item.Clone()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.items = append([]models.HistoryItem{item}, l.items...)
	observability.HistoryEntries().Set(float64(len(l.items)))
	span.SetAttributes(attribute.String("history.id", item.ID), attribute.Int("history.count", len(l.items)))

	payload, err := json.Marshal(l.items)
	if err == nil {
		err = l.store.Put(ctx, HistoryStorageKey, payload)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		l.logger.Error().Err(err).Str("history_id", item.ID).Msg("failed to persist history")
		return item.Clone(), fmt.Errorf("%w: %v", ErrHistoryPersist, err)
	}

	return item.Clone(), nil
}

func (l *historyLedger) Items() []models.HistoryItem {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return cloneHistory(l.items)
}

func (l *historyLedger) Get(id string) (models.HistoryItem, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, item := range l.items {
		if item.ID == id {
			return item.Clone(), true
		}
	}
	return models.HistoryItem{}, false
}

func (l *historyLedger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

func cloneHistory(items []models.HistoryItem) []models.HistoryItem {
	clone := make([]models.HistoryItem, len(items))
	for i, item := range items {
		clone[i] = item.Clone()
	}
	return clone
}
