package advisor

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseAdvicePlainText(t *testing.T) {
	adv, err := parseAdvice("Stop chasing hot deals. Fix your balance sheet first.")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if adv.Effects != nil {
		t.Fatalf("plain advice grew effects: %+v", adv.Effects)
	}
	if adv.Counsel == "" {
		t.Fatalf("counsel lost")
	}
}

func TestParseAdviceWithEffects(t *testing.T) {
	adv, err := parseAdvice("Take a weekend off before you snap.\n\n{\"stress\": -10, \"energy\": 5}")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if adv.Effects == nil {
		t.Fatalf("effects missing")
	}
	if adv.Effects.Stress == nil || *adv.Effects.Stress != -10 {
		t.Fatalf("stress = %v", adv.Effects.Stress)
	}
	if adv.Effects.Energy == nil || *adv.Effects.Energy != 5 {
		t.Fatalf("energy = %v", adv.Effects.Energy)
	}
	if adv.Counsel != "Take a weekend off before you snap." {
		t.Fatalf("counsel = %q", adv.Counsel)
	}
}

func TestParseAdviceStripsFences(t *testing.T) {
	adv, err := parseAdvice("Call the LP back.\n```json\n{\"reputation\": 2}\n```")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if adv.Effects == nil || adv.Effects.Reputation == nil || *adv.Effects.Reputation != 2 {
		t.Fatalf("fenced effects not parsed: %+v", adv.Effects)
	}
}

func TestOutOfBoundsEffectsDropped(t *testing.T) {
	// A 5000 cash grant is far past the schema cap.
	adv, err := parseAdvice("Here, take this.\n{\"cash\": 5000}")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if adv.Effects != nil {
		t.Fatalf("out-of-bounds effects accepted: %+v", adv.Effects)
	}
	if adv.Counsel == "" {
		t.Fatalf("counsel should survive dropped effects")
	}
}

func TestUnknownEffectFieldsDropped(t *testing.T) {
	adv, err := parseAdvice("Trust me.\n{\"loan_delta\": -99999}")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if adv.Effects != nil {
		t.Fatalf("unknown field accepted: %+v", adv.Effects)
	}
}

func TestFlagsCapped(t *testing.T) {
	adv, err := parseAdvice("Noted.\n{\"flags\": {\"a\": true, \"b\": true, \"c\": true, \"d\": true}}")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if adv.Effects != nil {
		t.Fatalf("four flags should fail the schema")
	}
}

func TestConsultRoundtrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"content":[{"text":"Walk away from the deal.\n{\"stress\": -5}"}],"usage":{"input_tokens":10,"output_tokens":20}}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", srv.URL)
	adv, err := Consult(context.Background(), client, &Situation{
		Week: 4, Seniority: "vp", Cash: 1200, Stress: 75,
		Reputation: 40, Portfolio: 2,
		TopRival: "Blackbriar Capital", RivalTier: "hostile",
		Question: "Should I counter their bid?",
	})
	if err != nil {
		t.Fatalf("consult: %v", err)
	}
	if adv.Counsel != "Walk away from the deal." {
		t.Fatalf("counsel = %q", adv.Counsel)
	}
	if adv.Effects == nil || adv.Effects.Stress == nil || *adv.Effects.Stress != -5 {
		t.Fatalf("effects = %+v", adv.Effects)
	}
}

func TestDisabledClient(t *testing.T) {
	if NewClient("", "") != nil {
		t.Fatalf("empty key should disable the client")
	}
	var c *Client
	if c.Enabled() {
		t.Fatalf("nil client reports enabled")
	}
	if _, err := Consult(context.Background(), c, &Situation{}); !errors.Is(err, ErrDisabled) {
		t.Fatalf("err = %v, want ErrDisabled", err)
	}
}

func TestRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":[{"text":"ok"}]}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", srv.URL)
	client.maxPerMin = 2

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := client.Complete(ctx, "", "q", 10); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if _, err := client.Complete(ctx, "", "q", 10); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
}

func TestAPIErrorCarriesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient("test-key", srv.URL)
	_, err := client.Complete(context.Background(), "", "q", 10)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", apiErr.Status)
	}
}

func TestCanceledContextAbortsCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":[{"text":"ok"}]}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", srv.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.Complete(ctx, "", "q", 10); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
