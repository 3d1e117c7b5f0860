package events

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessera-hq/tessera/internal/access"
	"github.com/tessera-hq/tessera/internal/platform/httpx"
)

func newHandlerRouter(repo *mockRepository) chi.Router {
	handler := NewHandler(nil, NewService(repo, nil, nil, nil, nil))
	r := chi.NewRouter()
	handler.MountRoutes(r)
	return r
}

func doRequest(t *testing.T, router chi.Router, method, target, body string, actor *access.Principal) *httptest.ResponseRecorder {
	t.Helper()
	if body == "" {
		body = "{}"
	}
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req = req.WithContext(access.ContextWithPrincipal(req.Context(), actor))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) httpx.ProblemDetail {
	t.Helper()
	var problem httpx.ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	return problem
}

func TestHandlerGetMissingEventReturns404Problem(t *testing.T) {
	router := newHandlerRouter(newMockRepository())

	rec := doRequest(t, router, http.MethodGet, "/no-such-event", "", managerPrincipal())

	require.Equal(t, http.StatusNotFound, rec.Code)
	problem := decodeProblem(t, rec)
	assert.Equal(t, "Not Found", problem.Title)
	assert.Equal(t, http.StatusNotFound, problem.Status)
	assert.Contains(t, problem.Detail, "event")
}

func TestHandlerCreateWithoutPermissionReturns403Problem(t *testing.T) {
	router := newHandlerRouter(newMockRepository())
	viewer := &access.Principal{ID: "v-1", Role: access.RoleViewer, Active: true}

	start := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	payload, err := json.Marshal(eventPayload{
		Title: "Quarterly review",
		Start: start,
		End:   start.Add(time.Hour),
	})
	require.NoError(t, err)

	rec := doRequest(t, router, http.MethodPost, "/", string(payload), viewer)

	require.Equal(t, http.StatusForbidden, rec.Code)
	problem := decodeProblem(t, rec)
	assert.Equal(t, "Forbidden", problem.Title)
	assert.Equal(t, http.StatusForbidden, problem.Status)
}

func TestHandlerCreateWithInvertedWindowReturns400Problem(t *testing.T) {
	router := newHandlerRouter(newMockRepository())

	start := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	payload, err := json.Marshal(eventPayload{
		Title: "Quarterly review",
		Start: start,
		End:   start.Add(-time.Hour),
	})
	require.NoError(t, err)

	rec := doRequest(t, router, http.MethodPost, "/", string(payload), managerPrincipal())

	require.Equal(t, http.StatusBadRequest, rec.Code)
	problem := decodeProblem(t, rec)
	assert.Equal(t, "Validation Failed", problem.Title)
	assert.Equal(t, http.StatusBadRequest, problem.Status)
}
