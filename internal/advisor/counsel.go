package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/talgya/dealfloor/internal/state"
)

// effectsSchema bounds what the model may do to the session. Deltas are
// capped well below what any scripted content hands out, and only a small
// whitelist of fields exists at all.
const effectsSchema = `{
	"type": "object",
	"additionalProperties": false,
	"properties": {
		"cash":       {"type": "number", "minimum": -500, "maximum": 500},
		"stress":     {"type": "number", "minimum": -15, "maximum": 15},
		"energy":     {"type": "number", "minimum": -15, "maximum": 15},
		"reputation": {"type": "number", "minimum": -5, "maximum": 5},
		"ethics":     {"type": "number", "minimum": -5, "maximum": 5},
		"flags": {
			"type": "object",
			"maxProperties": 3,
			"additionalProperties": {"type": "boolean"}
		}
	}
}`

var compiledEffects = jsonschema.MustCompileString("effects.json", effectsSchema)

// Advice is one advisor consultation: narrative counsel plus optional
// validated mechanical effects.
type Advice struct {
	Counsel string
	Effects *state.StatChanges
}

// Situation is the session summary handed to the model. The advisor sees
// roughly what a sharp mentor across the table would.
type Situation struct {
	Week       int
	Seniority  string
	Cash       float64
	LoanBal    float64
	Stress     float64
	Reputation float64
	AuditRisk  float64
	Portfolio  int

	TopRival     string
	RivalTier    string
	RecentEvents []string
	Question     string
}

// Consult asks the advisor for counsel on the current situation.
func Consult(ctx context.Context, client *Client, sit *Situation) (*Advice, error) {
	if !client.Enabled() {
		return nil, ErrDisabled
	}

	response, err := client.Complete(ctx, systemPrompt, userPrompt(sit), 600)
	if err != nil {
		return nil, fmt.Errorf("consult: %w", err)
	}

	return parseAdvice(response)
}

const systemPrompt = `You are Marcus Webb, a retired private-equity partner mentoring an ambitious dealmaker. You are blunt, pragmatic, and allergic to excuses. You have seen every mistake in the book because you made most of them.

Respond with a short paragraph of advice in character, then OPTIONALLY a single JSON object on its own lines describing small mechanical effects of the conversation:
- "cash": a number between -500 and 500 (a favor called in, a dinner you cover)
- "stress": a number between -15 and 15
- "energy": a number between -15 and 15
- "reputation": a number between -5 and 5
- "ethics": a number between -5 and 5
- "flags": up to 3 named boolean flags for narrative followups

Most conversations need no JSON at all. Never propose anything outside these fields.`

func userPrompt(sit *Situation) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Week %d. I'm a %s with $%.0f in the bank", sit.Week, sit.Seniority, sit.Cash)
	if sit.LoanBal > 0 {
		fmt.Fprintf(&b, " and $%.0f on the credit line", sit.LoanBal)
	}
	fmt.Fprintf(&b, ".\nStress %.0f, reputation %.0f, audit risk %.0f. %d portfolio companies.\n",
		sit.Stress, sit.Reputation, sit.AuditRisk, sit.Portfolio)

	if sit.TopRival != "" {
		fmt.Fprintf(&b, "%s is %s toward me.\n", sit.TopRival, sit.RivalTier)
	}
	if len(sit.RecentEvents) > 0 {
		b.WriteString("\nThis week:\n")
		for _, e := range sit.RecentEvents {
			fmt.Fprintf(&b, "- %s\n", e)
		}
	}

	b.WriteString("\n")
	b.WriteString(sit.Question)
	return b.String()
}

// parseAdvice splits the response into counsel text and an optional
// effects object. Effects that fail schema validation are dropped; the
// counsel text always survives.
func parseAdvice(response string) (*Advice, error) {
	text := strings.TrimSpace(stripFences(response))
	if text == "" {
		return nil, fmt.Errorf("empty advice")
	}

	adv := &Advice{Counsel: text}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return adv, nil
	}

	raw := text[start : end+1]
	effects, err := validateEffects(raw)
	if err != nil {
		// Bad effects are a model problem, not a caller problem.
		slog.Warn("advisor effects dropped", "error", err)
		return adv, nil
	}

	adv.Effects = effects
	adv.Counsel = strings.TrimSpace(text[:start])
	if adv.Counsel == "" {
		adv.Counsel = text
	}
	return adv, nil
}

// stripFences removes markdown code fences the model sometimes wraps JSON in.
func stripFences(s string) string {
	var b strings.Builder
	for _, line := range strings.Split(s, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// validateEffects checks the raw JSON against the schema and converts it
// into a sparse command.
func validateEffects(raw string) (*state.StatChanges, error) {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("effects json: %w", err)
	}
	if err := compiledEffects.Validate(v); err != nil {
		return nil, fmt.Errorf("effects schema: %w", err)
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("effects not an object")
	}

	var cmd state.StatChanges
	if n, ok := obj["cash"].(float64); ok {
		cmd.Cash = &n
	}
	if n, ok := obj["stress"].(float64); ok {
		cmd.Stress = &n
	}
	if n, ok := obj["energy"].(float64); ok {
		cmd.Energy = &n
	}
	if n, ok := obj["reputation"].(float64); ok {
		cmd.Reputation = &n
	}
	if n, ok := obj["ethics"].(float64); ok {
		cmd.Ethics = &n
	}
	if flags, ok := obj["flags"].(map[string]any); ok && len(flags) > 0 {
		cmd.Flags = make(map[string]bool, len(flags))
		for k, fv := range flags {
			if b, ok := fv.(bool); ok {
				cmd.Flags[k] = b
			}
		}
	}
	return &cmd, nil
}
