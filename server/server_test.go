package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careerplan/generator"
	"careerplan/publisher"
	"careerplan/store"
)

type failingLLM struct{}

func (failingLLM) Complete(context.Context, generator.Prompt) (string, error) {
	return "", errors.New("model unavailable")
}

func newTestServer(t *testing.T, llm generator.LLMClient) http.Handler {
	t.Helper()
	agent, err := generator.NewAgent(llm)
	require.NoError(t, err)
	pub, err := publisher.New(publisher.Config{}, false, nil)
	require.NoError(t, err)
	srv, err := New(agent, store.NewMemory(), pub)
	require.NoError(t, err)
	return srv.Routes()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

const answers = `{"answers": {"experience": "2 years QA", "interests": ["data"], "goal": "data engineer", "language": "he"}}`

func createSurvey(t *testing.T, h http.Handler) surveyResp {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/surveys", answers)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[surveyResp](t, rec)
}

func TestSurveyLifecycle(t *testing.T) {
	h := newTestServer(t, generator.MockLLM{})

	created := createSurvey(t, h)
	require.NotEmpty(t, created.Survey.ID)
	assert.True(t, strings.HasPrefix(created.AIPlan, "# Your Career Plan\n"))
	assert.Equal(t, created.AIPlan, created.Survey.AIPlan)
	assert.Equal(t, "Your Career Plan", created.Survey.Title)
	assert.Equal(t, "A step-by-step plan built from your survey answers.", created.Survey.Digest)
	require.Len(t, created.Survey.History, 1)
	assert.Equal(t, "initial", created.Survey.History[0].Summary)
	path := "/api/surveys/" + created.Survey.ID

	rec := do(t, h, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.AIPlan, decode[surveyView](t, rec).AIPlan)

	rec = do(t, h, http.MethodGet, "/api/surveys", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]surveyView](t, rec), 1)

	rec = do(t, h, http.MethodPost, path+"/regenerate", `{"comment": "focus on SQL"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	revised := decode[surveyResp](t, rec)
	require.Len(t, revised.Survey.History, 2)
	assert.Equal(t, "revision", revised.Survey.History[1].Summary)
	assert.Equal(t, "focus on SQL", revised.Survey.History[1].Comment)

	rec = do(t, h, http.MethodPost, path+"/regenerate", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "regenerated", decode[surveyResp](t, rec).Survey.History[2].Summary)

	rec = do(t, h, http.MethodPut, path, `{"answers": {"goal": "product manager", "language": "en"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[surveyResp](t, rec)
	assert.Equal(t, "product manager", updated.Survey.Answers.Goal)
	assert.Len(t, updated.Survey.History, 4)

	rec = do(t, h, http.MethodDelete, path, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Survey deleted", decode[map[string]string](t, rec)["message"])

	rec = do(t, h, http.MethodGet, path, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "survey not found", decode[map[string]string](t, rec)["error"])
}

func TestCreateSurveyValidation(t *testing.T) {
	h := newTestServer(t, generator.MockLLM{})

	rec := do(t, h, http.MethodPost, "/api/surveys", `{"answers": {"goal": "  "}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["error"], "goal")

	rec = do(t, h, http.MethodPost, "/api/surveys", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/surveys", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerationFailure(t *testing.T) {
	h := newTestServer(t, failingLLM{})
	rec := do(t, h, http.MethodPost, "/api/surveys", answers)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "model unavailable", decode[map[string]string](t, rec)["error"])

	rec = do(t, h, http.MethodGet, "/api/surveys", "")
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestMissingSurvey(t *testing.T) {
	h := newTestServer(t, generator.MockLLM{})
	for _, c := range []struct{ method, path, body string }{
		{http.MethodGet, "/api/surveys/nope", ""},
		{http.MethodPut, "/api/surveys/nope", answers},
		{http.MethodDelete, "/api/surveys/nope", ""},
		{http.MethodPost, "/api/surveys/nope/regenerate", ""},
		{http.MethodGet, "/api/surveys/nope/export/md", ""},
		{http.MethodGet, "/api/surveys/nope/blocks", ""},
		{http.MethodGet, "/plans/nope", ""},
	} {
		rec := do(t, h, c.method, c.path, c.body)
		assert.Equal(t, http.StatusNotFound, rec.Code, "%s %s", c.method, c.path)
	}
}

func TestExport(t *testing.T) {
	h := newTestServer(t, generator.MockLLM{})
	id := createSurvey(t, h).Survey.ID

	rec := do(t, h, http.MethodGet, "/api/surveys/"+id+"/export/md", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="your-career-plan.md"`, rec.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "# Your Career Plan"))

	rec = do(t, h, http.MethodGet, "/api/surveys/"+id+"/export/txt", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "1. Review your current skills")
	assert.Contains(t, rec.Body.String(), "• Roadmaps (https://roadmap.sh)")

	rec = do(t, h, http.MethodGet, "/api/surveys/"+id+"/export/pdf", "")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["error"], "use html, md or txt")

	rec = do(t, h, http.MethodGet, "/api/surveys/"+id+"/export/rtf", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBlocks(t *testing.T) {
	h := newTestServer(t, generator.MockLLM{})
	id := createSurvey(t, h).Survey.ID

	rec := do(t, h, http.MethodGet, "/api/surveys/"+id+"/blocks", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[struct {
		Language string      `json:"language"`
		Blocks   []blockView `json:"blocks"`
	}](t, rec)
	assert.Equal(t, "he", resp.Language)
	require.NotEmpty(t, resp.Blocks)
	assert.Equal(t, "header", string(resp.Blocks[0].Kind))
	assert.Equal(t, 1, resp.Blocks[0].Level)
	assert.Equal(t, "bold", string(resp.Blocks[1].Spans[1].Kind))
}

func TestBlockTree(t *testing.T) {
	tree := blockTree("- **a**\n- b\n```\n*x*\n```\n> *q*")
	require.Len(t, tree, 3)
	require.NotNil(t, tree[0].Ordered)
	assert.False(t, *tree[0].Ordered)
	assert.Nil(t, tree[1].Ordered)
	require.Len(t, tree[0].ItemSpans, 2)
	assert.Equal(t, "bold", string(tree[0].ItemSpans[0][0].Kind))
	assert.Nil(t, tree[0].Spans)
	assert.Nil(t, tree[1].Spans)
	assert.Equal(t, "*x*", tree[1].Text)
	assert.Equal(t, "italic", string(tree[2].Spans[0].Kind))
}

func TestRender(t *testing.T) {
	h := newTestServer(t, generator.MockLLM{})
	rec := do(t, h, http.MethodPost, "/api/render", `{"markdown": "# שלום\n\nטקסט **מודגש**", "language": "he"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[renderResp](t, rec)
	assert.Len(t, resp.Blocks, 2)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.HTML))
	require.NoError(t, err)
	assert.Equal(t, "rtl", doc.Find("div.md").AttrOr("dir", ""))
	assert.Equal(t, "מודגש", doc.Find("strong").Text())
}

func TestPlanPage(t *testing.T) {
	h := newTestServer(t, generator.MockLLM{})
	id := createSurvey(t, h).Survey.ID

	rec := do(t, h, http.MethodGet, "/plans/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, "rtl", doc.Find("html").AttrOr("dir", ""))
	assert.Equal(t, "Your Career Plan", doc.Find("title").Text())
	assert.Equal(t, "Roadmaps", doc.Find(`a[target="_blank"]`).Text())
}

func TestUserStats(t *testing.T) {
	h := newTestServer(t, generator.MockLLM{})

	rec := do(t, h, http.MethodGet, "/api/analytics/user-stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"totalSurveys": 0,
		"plansGenerated": 0,
		"goalsCompleted": 0,
		"lastActivity": "",
		"lastActivityAgo": "never",
		"engine": "dialect"
	}`, rec.Body.String())

	id := createSurvey(t, h).Survey.ID
	createSurvey(t, h)
	do(t, h, http.MethodPost, "/api/surveys/"+id+"/regenerate", `{"comment": "more detail"}`)

	rec = do(t, h, http.MethodGet, "/api/analytics/user-stats", "")
	stats := decode[statsResp](t, rec)
	assert.Equal(t, 2, stats.TotalSurveys)
	assert.Equal(t, 3, stats.PlansGenerated)
	assert.Equal(t, 0, stats.GoalsCompleted)
	_, err := time.Parse(time.RFC3339, stats.LastActivity)
	assert.NoError(t, err)
	assert.NotEqual(t, "never", stats.LastActivityAgo)
}

func TestWireFormat(t *testing.T) {
	h := newTestServer(t, generator.MockLLM{})
	rec := do(t, h, http.MethodPost, "/api/surveys", answers)
	require.Equal(t, http.StatusCreated, rec.Code)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.IsType(t, "", raw["aiPlan"])
	survey, ok := raw["survey"].(map[string]any)
	require.True(t, ok)
	for _, key := range []string{"id", "answers", "aiPlan", "createdAt", "updatedAt"} {
		assert.Contains(t, survey, key)
	}
	assert.NotContains(t, survey, "created_at")
	assert.NotContains(t, survey, "plan")

	rec = do(t, h, http.MethodGet, "/api/surveys/"+survey["id"].(string)+"/blocks", "")
	assert.Contains(t, rec.Body.String(), `"ordered":true`)
	assert.Contains(t, rec.Body.String(), `"ordered":false`)
}

func lockCount(l *surveyLocks) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

func TestSurveyLocksAreReleased(t *testing.T) {
	agent, err := generator.NewAgent(generator.MockLLM{})
	require.NoError(t, err)
	pub, err := publisher.New(publisher.Config{}, false, nil)
	require.NoError(t, err)
	srv, err := New(agent, store.NewMemory(), pub)
	require.NoError(t, err)
	h := srv.Routes()

	for i := 0; i < 20; i++ {
		id := fmt.Sprintf("missing-%d", i)
		do(t, h, http.MethodPut, "/api/surveys/"+id, answers)
		do(t, h, http.MethodPost, "/api/surveys/"+id+"/regenerate", "")
		do(t, h, http.MethodDelete, "/api/surveys/"+id, "")
	}
	assert.Equal(t, 0, lockCount(srv.locks))

	id := createSurvey(t, h).Survey.ID
	do(t, h, http.MethodPost, "/api/surveys/"+id+"/regenerate", "")
	assert.Equal(t, 0, lockCount(srv.locks))
}

func TestSurveyLocksSerialize(t *testing.T) {
	l := newLocks()
	unlock := l.lock("a")
	acquired := make(chan struct{})
	go func() {
		release := l.lock("a")
		close(acquired)
		release()
	}()

	select {
	case <-acquired:
		t.Fatal("second holder acquired a held lock")
	case <-time.After(20 * time.Millisecond):
	}
	assert.Equal(t, 1, lockCount(l))
	unlock()
	<-acquired
	assert.Eventually(t, func() bool { return lockCount(l) == 0 }, time.Second, time.Millisecond)
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestServer(t, generator.MockLLM{})
	rec := do(t, h, http.MethodPatch, "/api/surveys", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
