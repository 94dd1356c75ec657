package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradx-api/internal/handler"
	"github.com/noah-isme/gradx-api/internal/repository"
	"github.com/noah-isme/gradx-api/internal/service"
	"github.com/noah-isme/gradx-api/internal/utils"
	"github.com/noah-isme/gradx-api/pkg/ai"
)

var samplePDF = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

type stubGrader struct {
	mu     sync.Mutex
	result ai.GradeResult
	err    error
	calls  int
}

func (s *stubGrader) Grade(context.Context, ai.GradeRequest) (ai.GradeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.result, s.err
}

type stubConversationalist struct {
	reply string
	err   error
}

func (s stubConversationalist) Converse(context.Context, []ai.Turn, string, ai.ConversationContext) (string, error) {
	return s.reply, s.err
}

type stubPlanner struct {
	content string
	err     error
}

func (s stubPlanner) GeneratePlan(context.Context, ai.PlanRequest) (string, error) {
	return s.content, s.err
}

func sampleGradeResult() ai.GradeResult {
	return ai.GradeResult{
		StudentName:     "Rohan Sharma",
		Transcription:   "Q1: Photosynthesis converts light into chemical energy.",
		TotalScore:      7.5,
		MaxTotalScore:   10,
		SummaryFeedback: "Good grasp of the basics.",
		Breakdown: []ai.QuestionScore{
			{QuestionID: "Q1", Score: 5, MaxScore: 5, Feedback: "Complete answer."},
			{QuestionID: "Q2", Score: 2.5, MaxScore: 5, Feedback: "Missing the equation."},
		},
	}
}

type testServer struct {
	app     *fiber.App
	session service.GradingSession
	queue   service.NotificationQueue
	grader  *stubGrader
}

type serverOptions struct {
	chat    stubConversationalist
	planner stubPlanner
}

func newTestServer(t *testing.T, opts serverOptions) *testServer {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := zerolog.Nop()
	validate := validator.New()

	ledger := service.NewHistoryLedger(repository.NewRedisKeyValueStore(client, "gradx-test"), logger)
	ledger.LoadAll(context.Background())

	grader := &stubGrader{result: sampleGradeResult()}
	queue := service.NewNotificationQueue(time.Minute, nil, "", logger)
	chat := service.NewChatRefinement(opts.chat, time.Second, logger)
	session := service.NewGradingSession(
		service.NewArtifactStore(1, logger),
		ledger,
		grader,
		chat,
		queue,
		validate,
		service.SessionConfig{GradingTimeout: time.Second},
		logger,
	)

	app := fiber.New()
	api := app.Group("/api/v1")
	handler.NewSessionHandler(session, validate, 1, logger).Register(api.Group("/session"))
	handler.NewChatHandler(session, validate, logger).Register(api.Group("/session/chat"))
	handler.NewHistoryHandler(session).Register(api.Group("/history"))
	handler.NewNotificationHandler(queue, logger, time.Second).Register(api.Group("/notifications"))
	handler.NewLessonPlanHandler(
		service.NewLessonPlanService(opts.planner, validate, time.Second, logger),
		service.NewLessonPlanExporter(validate),
		validate,
		logger,
	).Register(api.Group("/lesson-plans"))

	return &testServer{app: app, session: session, queue: queue, grader: grader}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) (*http.Response, utils.APIResponse) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}

	resp, err := s.app.Test(req)
	require.NoError(t, err)

	var envelope utils.APIResponse
	decodeResponse(t, resp, &envelope)
	return resp, envelope
}

func (s *testServer) upload(t *testing.T, slot, filename, contentType string, data []byte) (*http.Response, utils.APIResponse) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPut, "/api/v1/session/artifacts/"+slot, &buf)
	req.Header.Set(fiber.HeaderContentType, writer.FormDataContentType())

	resp, err := s.app.Test(req)
	require.NoError(t, err)

	var envelope utils.APIResponse
	decodeResponse(t, resp, &envelope)
	return resp, envelope
}

// prepareForGrading uploads a script and switches to the default text rubric.
func (s *testServer) prepareForGrading(t *testing.T) {
	t.Helper()

	resp, _ := s.upload(t, "student", "script.pdf", "application/pdf", samplePDF)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = s.do(t, http.MethodPut, "/api/v1/session/rubric", map[string]string{"mode": "text"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, json.Unmarshal(body, target))
}

// dataAs re-decodes the envelope payload into target.
func dataAs(t *testing.T, envelope utils.APIResponse, target interface{}) {
	t.Helper()
	payload, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(payload, target))
}
