package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/talgya/dealfloor/internal/config"
	"github.com/talgya/dealfloor/internal/content"
	"github.com/talgya/dealfloor/internal/engine"
	"github.com/talgya/dealfloor/internal/entropy"
	"github.com/talgya/dealfloor/internal/scenario"
	"github.com/talgya/dealfloor/internal/state"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	catalog, err := scenario.LoadDefault()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	cast, err := content.LoadDefault()
	if err != nil {
		t.Fatalf("load cast: %v", err)
	}
	// High rolls suppress every stochastic branch.
	sim := engine.New(nil, config.DefaultTuning(), &entropy.Scripted{Values: []float64{0.99}}, catalog)
	return New(sim, nil, nil, cast, "hunter2").Handler()
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func startSession(t *testing.T, h http.Handler) {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/v1/session",
		map[string]any{"level": 0, "difficulty": 1}, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("session create = %d, want 201: %s", rec.Code, rec.Body.String())
	}
}

func TestHealthz(t *testing.T) {
	h := newTestServer(t)
	rec := doJSON(t, h, http.MethodGet, "/healthz", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz = %d, want 200", rec.Code)
	}
}

func TestSessionLifecycle(t *testing.T) {
	h := newTestServer(t)
	startSession(t, h)

	rec := doJSON(t, h, http.MethodGet, "/v1/status", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	status := decodeBody(t, rec)
	if status["week"] != float64(1) {
		t.Fatalf("week = %v, want 1", status["week"])
	}
	if status["cash"] != float64(1500) {
		t.Fatalf("cash = %v, want 1500", status["cash"])
	}
	if status["actions_remaining"] != float64(2) {
		t.Fatalf("actions_remaining = %v, want 2", status["actions_remaining"])
	}
}

func TestNewSessionArrivesPopulated(t *testing.T) {
	h := newTestServer(t)
	rec := doJSON(t, h, http.MethodPost, "/v1/session",
		map[string]any{"level": 0, "difficulty": 1}, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("session create = %d: %s", rec.Code, rec.Body.String())
	}
	snap := decodeBody(t, rec)
	for _, key := range []string{"actors", "rivals", "deals"} {
		list, ok := snap[key].([]any)
		if !ok || len(list) == 0 {
			t.Fatalf("new session has no %s", key)
		}
	}
}

func TestDuplicateActionMapsToUnprocessable(t *testing.T) {
	h := newTestServer(t)
	startSession(t, h)

	body := map[string]any{"type": "call_lp", "target_id": 7}
	if rec := doJSON(t, h, http.MethodPost, "/v1/action", body, ""); rec.Code != http.StatusOK {
		t.Fatalf("first action = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	rec := doJSON(t, h, http.MethodPost, "/v1/action", body, "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("duplicate action = %d, want 422", rec.Code)
	}
	if got := decodeBody(t, rec)["code"]; got != state.DeclineDuplicate {
		t.Fatalf("decline code = %v, want %s", got, state.DeclineDuplicate)
	}
}

func TestAdminEndpointsRequireToken(t *testing.T) {
	h := newTestServer(t)
	startSession(t, h)

	if rec := doJSON(t, h, http.MethodPost, "/v1/advance", nil, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("advance without token = %d, want 401", rec.Code)
	}
	if rec := doJSON(t, h, http.MethodPost, "/v1/advance", nil, "wrong"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("advance with bad token = %d, want 401", rec.Code)
	}
	if rec := doJSON(t, h, http.MethodPost, "/v1/advance", nil, "hunter2"); rec.Code != http.StatusOK {
		t.Fatalf("advance with token = %d, want 200: %s", rec.Code, rec.Body.String())
	}
}

func TestAdvanceMovesOneWeekPerCall(t *testing.T) {
	h := newTestServer(t)
	startSession(t, h)

	rec := doJSON(t, h, http.MethodPost, "/v1/advance", nil, "hunter2")
	if got := decodeBody(t, rec)["week"]; got != float64(2) {
		t.Fatalf("week after first advance = %v, want 2", got)
	}
	rec = doJSON(t, h, http.MethodPost, "/v1/advance", nil, "hunter2")
	if got := decodeBody(t, rec)["week"]; got != float64(3) {
		t.Fatalf("week after second advance = %v, want 3", got)
	}
}

func TestAdvanceWithoutSessionConflicts(t *testing.T) {
	h := newTestServer(t)
	rec := doJSON(t, h, http.MethodPost, "/v1/advance", nil, "hunter2")
	if rec.Code != http.StatusConflict {
		t.Fatalf("advance without session = %d, want 409", rec.Code)
	}
}

func TestSlotCyclesClock(t *testing.T) {
	h := newTestServer(t)
	startSession(t, h)

	rec := doJSON(t, h, http.MethodPost, "/v1/slot", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("slot = %d, want 200", rec.Code)
	}
	if got := decodeBody(t, rec)["time_slot"]; got != float64(state.Afternoon) {
		t.Fatalf("slot = %v, want afternoon", got)
	}
}

func TestAdvisorUnavailableWithoutClient(t *testing.T) {
	h := newTestServer(t)
	startSession(t, h)

	rec := doJSON(t, h, http.MethodPost, "/v1/advisor",
		map[string]any{"question": "should I take the bridge loan?"}, "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("advisor = %d, want 503", rec.Code)
	}
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header string
		want   string
	}{
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"Bearer  abc ", "abc"},
		{"Basic abc", ""},
		{"abc", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := bearerToken(tc.header); got != tc.want {
			t.Fatalf("bearerToken(%q) = %q, want %q", tc.header, got, tc.want)
		}
	}
}
