package rules

import (
	"testing"

	"github.com/docsift/docsift/pkg/result"
)

func envWith(fields map[string]any) *result.Envelope {
	env := result.NewEnvelope()
	for name, v := range fields {
		env.Fields[name] = result.Field{
			Value:      v,
			Confidence: 0.9,
			Spans:      []result.Span{{Start: 0, End: 1}},
		}
	}
	return env
}

func TestEvaluate_EqualsWithTolerance(t *testing.T) {
	env := envWith(map[string]any{"subtotal": 100.005})

	out := Evaluate(env, []string{"equals(subtotal, 100, tol=0.01)"})
	if len(out.Passed) != 1 {
		t.Fatalf("expected pass within tolerance, got failed=%v", out.Failed)
	}

	out = Evaluate(env, []string{"equals(subtotal, 100)"})
	if len(out.Failed) != 1 {
		t.Fatalf("expected fail without tolerance, got passed=%v", out.Passed)
	}
}

func TestEvaluate_AddNested(t *testing.T) {
	env := envWith(map[string]any{
		"subtotal":    100.0,
		"tax_total":   20.0,
		"grand_total": 120.0,
	})

	out := Evaluate(env, []string{"equals(add(subtotal, tax_total), grand_total, tol=0.001)"})
	if len(out.Passed) != 1 {
		t.Fatalf("nested add failed: %v", out.Failed)
	}
}

func TestEvaluate_SumOfArrayField(t *testing.T) {
	env := envWith(map[string]any{
		"line_totals": []any{10.0, 20.0, "30"},
		"grand_total": 60.0,
	})

	out := Evaluate(env, []string{"equals(sum(line_totals), grand_total)"})
	if len(out.Passed) != 1 {
		t.Fatalf("sum rule failed: %v", out.Failed)
	}
}

func TestEvaluate_InSet(t *testing.T) {
	env := envWith(map[string]any{"currency": "EUR"})

	out := Evaluate(env, []string{
		`in_set(currency, ["USD","EUR","GBP"])`,
		`in_set(currency, ['USD','GBP'])`,
	})
	if len(out.Passed) != 1 || len(out.Failed) != 1 {
		t.Fatalf("expected 1 pass / 1 fail, got %v / %v", out.Passed, out.Failed)
	}
}

func TestEvaluate_MatchNullFieldFails(t *testing.T) {
	env := result.NewEnvelope()
	env.Fields["invoice_number"] = result.Field{Value: nil, Confidence: 0}

	out := Evaluate(env, []string{`match(invoice_number, "^INV-")`})
	if len(out.Failed) != 1 {
		t.Fatalf("match on null field should fail, got passed=%v", out.Passed)
	}
}

func TestEvaluate_Match(t *testing.T) {
	env := envWith(map[string]any{"invoice_number": "INV-2025-003"})

	out := Evaluate(env, []string{`match(invoice_number, "^INV-")`})
	if len(out.Passed) != 1 {
		t.Fatalf("match failed: %v", out.Failed)
	}
}

func TestEvaluate_DateLe(t *testing.T) {
	env := envWith(map[string]any{
		"issue_date": "2025-01-10",
		"due_date":   "2025-02-10",
	})

	out := Evaluate(env, []string{
		"date_le(issue_date, due_date)",
		"date_le(due_date, issue_date)",
	})
	if len(out.Passed) != 1 || len(out.Failed) != 1 {
		t.Fatalf("date ordering wrong: passed=%v failed=%v", out.Passed, out.Failed)
	}
}

func TestEvaluate_UnsupportedSyntaxFailsRule(t *testing.T) {
	env := envWith(map[string]any{"a": 1.0})

	out := Evaluate(env, []string{"frobnicate(a)", "equals(a, 1)"})
	if len(out.Failed) != 1 || out.Failed[0] != "frobnicate(a)" {
		t.Fatalf("unsupported expr should fail: %v", out.Failed)
	}
	if len(out.Passed) != 1 {
		t.Fatalf("valid rule should still pass: %v", out.Passed)
	}
}

func TestEvaluate_BadRegexFailsRule(t *testing.T) {
	env := envWith(map[string]any{"x": "abc"})

	out := Evaluate(env, []string{`match(x, "([")`})
	if len(out.Failed) != 1 {
		t.Fatalf("bad regex should fail the rule, not panic")
	}
}
