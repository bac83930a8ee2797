package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/rag-candidates/internal/models"
	"alfredoptarigan/rag-candidates/internal/services"
)

type fakeChatService struct {
	result *models.ChatResult
	err    error
	got    *models.ChatRequest
}

func (f *fakeChatService) Ask(_ context.Context, req models.ChatRequest) (*models.ChatResult, error) {
	f.got = &req
	return f.result, f.err
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func chatApp(svc services.ChatService) *fiber.App {
	app := fiber.New()
	app.Post("/chat", NewChatHandler(svc).HandleChat)
	return app
}

func TestHandleChat(t *testing.T) {
	svc := &fakeChatService{result: &models.ChatResult{
		Answer:  "Selected Candidate: Ana Souza (ID: cand-java, Rank: 1)\n\nJustification: ok",
		Sources: []models.ChatSource{},
	}}

	status, body := doJSON(t, chatApp(svc), http.MethodPost, "/chat",
		`{"question": "  Who knows Java?  ", "filters": {"englishMin": "C1", "candidateIds": ["cand-java"]}}`)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, svc.result.Answer, body["answer"])
	assert.Equal(t, []any{}, body["sources"])
	require.NotNil(t, svc.got)
	assert.Equal(t, "Who knows Java?", svc.got.Question)
	assert.Equal(t, "C1", svc.got.Filters.EnglishMin)
}

func TestHandleChatRejectsBadRequests(t *testing.T) {
	svc := &fakeChatService{}
	app := chatApp(svc)

	cases := []struct {
		name string
		body string
		want string
	}{
		{"malformed", `{"question":`, "Invalid request payload"},
		{"blank question", `{"question": "   "}`, "validation error: ChatRequest.Question - required"},
		{"short question", `{"question": "hi"}`, "validation error: ChatRequest.Question - min"},
		{"oversized english level", `{"question": "Who knows Go?", "filters": {"englishMin": "` + strings.Repeat("C", 40) + `"}}`, "validation error: ChatRequest.Filters.EnglishMin - max"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := doJSON(t, app, http.MethodPost, "/chat", tc.body)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, tc.want, body["error"])
		})
	}
	assert.Nil(t, svc.got)
}

func TestHandleChatAcceptsAnyEnglishLevelSpelling(t *testing.T) {
	for _, level := range []string{"b2", "fluent", "NATIVE", "Proficient"} {
		t.Run(level, func(t *testing.T) {
			svc := &fakeChatService{result: &models.ChatResult{Answer: "ok", Sources: []models.ChatSource{}}}

			status, _ := doJSON(t, chatApp(svc), http.MethodPost, "/chat",
				`{"question": "Who knows Java?", "filters": {"englishMin": "`+level+`"}}`)
			assert.Equal(t, http.StatusOK, status)
			require.NotNil(t, svc.got)
			assert.Equal(t, level, svc.got.Filters.EnglishMin)
		})
	}
}

func TestHandleChatErrors(t *testing.T) {
	status, body := doJSON(t, chatApp(&fakeChatService{err: &services.LLMOutputError{Attempts: 2, RawOutput: "nope"}}),
		http.MethodPost, "/chat", `{"question": "Who knows Java?"}`)
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "The language model did not return a valid answer", body["error"])

	status, _ = doJSON(t, chatApp(&fakeChatService{err: errors.New("qdrant unreachable")}),
		http.MethodPost, "/chat", `{"question": "Who knows Java?"}`)
	assert.Equal(t, http.StatusInternalServerError, status)
}
