package service

import (
	"context"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gradx-api/internal/models"
	"github.com/noah-isme/gradx-api/internal/repository"
	"github.com/noah-isme/gradx-api/pkg/ai"
)

var samplePDF = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func pdfFile(name string) RawFile {
	return RawFile{Name: name, DeclaredType: models.AcceptedArtifactType, Data: samplePDF}
}

type memoryStore struct {
	mu     sync.Mutex
	data   map[string][]byte
	getErr error
	putErr error
	puts   int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: make(map[string][]byte)}
}

func (m *memoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	value, ok := m.data[key]
	if !ok {
		return nil, repository.ErrKeyNotFound
	}
	return append([]byte(nil), value...), nil
}

func (m *memoryStore) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if m.putErr != nil {
		return m.putErr
	}
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *memoryStore) setPutErr(err error) {
	m.mu.Lock()
	m.putErr = err
	m.mu.Unlock()
}

type stubGrader struct {
	mu      sync.Mutex
	calls   []ai.GradeRequest
	result  ai.GradeResult
	err     error
	block   chan struct{}
	started chan struct{}
}

func (g *stubGrader) Grade(ctx context.Context, req ai.GradeRequest) (ai.GradeResult, error) {
	g.mu.Lock()
	g.calls = append(g.calls, req)
	block, started, result, err := g.block, g.started, g.result, g.err
	g.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ai.GradeResult{}, ctx.Err()
		}
	}
	return result, err
}

func (g *stubGrader) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func (g *stubGrader) lastCall() ai.GradeRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[len(g.calls)-1]
}

type stubConversationalist struct {
	mu      sync.Mutex
	calls   int
	prior   []ai.Turn
	text    string
	context ai.ConversationContext
	reply   string
	err     error
	block   chan struct{}
	started chan struct{}
}

func (c *stubConversationalist) Converse(ctx context.Context, prior []ai.Turn, text string, cc ai.ConversationContext) (string, error) {
	c.mu.Lock()
	c.calls++
	c.prior = prior
	c.text = text
	c.context = cc
	block, started, reply, err := c.block, c.started, c.reply, c.err
	c.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return reply, err
}

func (c *stubConversationalist) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func sampleGradeResult() ai.GradeResult {
	return ai.GradeResult{
		StudentName:     "Rohan Sharma",
		Transcription:   "Q1: Photosynthesis converts light...",
		TotalScore:      7.5,
		MaxTotalScore:   10,
		SummaryFeedback: "Good understanding, missed units in Q2.",
		Breakdown: []ai.QuestionScore{
			{QuestionID: "Q1", Score: 5, MaxScore: 5, Feedback: "Complete."},
			{QuestionID: "Q2", Score: 2.5, MaxScore: 5, Feedback: "Units missing."},
		},
	}
}

type sessionFixture struct {
	session       GradingSession
	grader        *stubGrader
	chatEngine    *stubConversationalist
	store         *memoryStore
	ledger        HistoryLedger
	notifications NotificationQueue
}

func newSessionFixture(cfg SessionConfig) *sessionFixture {
	grader := &stubGrader{result: sampleGradeResult()}
	chatEngine := &stubConversationalist{reply: "Q2 lost marks because the units were missing."}
	store := newMemoryStore()
	ledger := NewHistoryLedger(store, testLogger())
	ledger.LoadAll(context.Background())
	notifications := NewNotificationQueue(time.Minute, nil, "", testLogger())
	chat := NewChatRefinement(chatEngine, time.Second, testLogger())

	session := NewGradingSession(
		NewArtifactStore(10, testLogger()),
		ledger,
		grader,
		chat,
		notifications,
		validator.New(),
		cfg,
		testLogger(),
	)

	return &sessionFixture{
		session:       session,
		grader:        grader,
		chatEngine:    chatEngine,
		store:         store,
		ledger:        ledger,
		notifications: notifications,
	}
}

func (f *sessionFixture) uploadBoth() error {
	if _, err := f.session.SetArtifact(models.ArtifactSlotStudent, pdfFile("script.pdf")); err != nil {
		return err
	}
	_, err := f.session.SetArtifact(models.ArtifactSlotRubric, pdfFile("rubric.pdf"))
	return err
}
