package result

import (
	"encoding/json"
	"testing"
)

func TestNormalizeNullsSpanlessValues(t *testing.T) {
	env := NewEnvelope()
	env.Fields["total"] = Field{Value: "120.00", Confidence: 0.9}
	env.Fields["invoice_number"] = Field{
		Value:      "INV-7",
		Confidence: 0.8,
		Spans:      []Span{{Start: 12, End: 17}},
	}

	env.Normalize()

	total := env.Fields["total"]
	if total.Value != nil {
		t.Errorf("spanless field value = %v, want nil", total.Value)
	}
	if len(total.Warnings) != 1 || total.Warnings[0] != "missing_span" {
		t.Errorf("spanless field warnings = %v, want [missing_span]", total.Warnings)
	}

	inv := env.Fields["invoice_number"]
	if inv.Value != "INV-7" {
		t.Errorf("spanned field value = %v, want INV-7", inv.Value)
	}
	if len(inv.Warnings) != 0 {
		t.Errorf("spanned field warnings = %v, want none", inv.Warnings)
	}
}

func TestNormalizeLeavesNullFieldsAlone(t *testing.T) {
	env := NewEnvelope()
	env.Fields["total"] = Field{Value: nil, Confidence: 0}

	env.Normalize()

	if got := env.Fields["total"].Warnings; len(got) != 0 {
		t.Errorf("null field warnings = %v, want none", got)
	}
}

func TestClampConfidence(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.42, 0.42},
		{1, 1},
		{1.7, 1},
	}
	for _, tc := range cases {
		if got := ClampConfidence(tc.in); got != tc.want {
			t.Errorf("ClampConfidence(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestEarliestSpan(t *testing.T) {
	f := Field{Spans: []Span{{Start: 40, End: 45}, {Start: 12, End: 20}, {Start: 99, End: 100}}}
	if got := f.EarliestSpan(); got != 12 {
		t.Errorf("EarliestSpan() = %d, want 12", got)
	}

	var empty Field
	if got := empty.EarliestSpan(); got != int(^uint(0)>>1) {
		t.Errorf("EarliestSpan() on spanless field = %d, want max int", got)
	}
}

func TestNewEnvelopeStartsOK(t *testing.T) {
	env := NewEnvelope()
	if env.Status != StatusOK {
		t.Errorf("Status = %q, want %q", env.Status, StatusOK)
	}
	if env.Fields == nil || env.Warnings == nil {
		t.Error("fields and warnings must be initialized")
	}
	if env.Validation.RulesPassed == nil || env.Validation.RulesFailed == nil {
		t.Error("validation slices must be initialized")
	}
}

func TestEnvelopeJSONShape(t *testing.T) {
	env := NewEnvelope()
	page := 2
	env.Fields["total"] = Field{
		Value:      "120.00",
		Confidence: 0.9,
		Spans:      []Span{{Page: &page, Start: 10, End: 16, BBox: &Rect{X: 150, Y: 700, W: 40, H: 10}}},
	}
	env.Stats.Backend = "local"
	env.Stats.CriticalConfidence = 0.9

	raw, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"fields", "warnings", "validation", "status", "stats"} {
		if _, ok := m[key]; !ok {
			t.Errorf("marshaled envelope missing %q", key)
		}
	}
	// Empty warning lists serialize as [], not null.
	if _, ok := m["warnings"].([]any); !ok {
		t.Errorf("warnings serialized as %T, want array", m["warnings"])
	}
}
