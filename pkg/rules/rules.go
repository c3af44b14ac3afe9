// Package rules evaluates a small validation DSL over extraction results.
//
// Each rule is a single function call over extracted field values:
//
//	equals(a, b)            numeric equality
//	equals(a, b, tol=0.01)  numeric equality within tolerance
//	in_set(x, ["a","b"])    string containment in a literal list
//	match(x, "^INV-")       regular-expression test
//	date_le(a, b)           date ordering (a on or before b)
//
// Arguments may be numeric or quoted string literals, bare field names
// (resolving to fields[name].value), or the nested resolvers add(a, b)
// and sum(field) where the field value is an array of numeric entries.
package rules

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/araddon/dateparse"

	"github.com/docsift/docsift/pkg/result"
)

// Outcome partitions the evaluated rules.
type Outcome struct {
	Passed []string `json:"passed"`
	Failed []string `json:"failed"`
}

// Evaluate runs every rule against the envelope. A rule with unsupported
// syntax or a runtime evaluation error is recorded as failed; Evaluate
// itself never returns an error.
func Evaluate(env *result.Envelope, exprs []string) Outcome {
	out := Outcome{Passed: []string{}, Failed: []string{}}
	for _, expr := range exprs {
		ok, err := evalExpr(expr, env)
		if err == nil && ok {
			out.Passed = append(out.Passed, expr)
		} else {
			out.Failed = append(out.Failed, expr)
		}
	}
	return out
}

func evalExpr(expr string, env *result.Envelope) (bool, error) {
	trimmed := strings.TrimSpace(expr)
	switch {
	case strings.HasPrefix(trimmed, "equals("):
		return evalEquals(splitArgs(trimmed), env)
	case strings.HasPrefix(trimmed, "in_set("):
		return evalInSet(splitArgs(trimmed), env)
	case strings.HasPrefix(trimmed, "match("):
		return evalMatch(splitArgs(trimmed), env)
	case strings.HasPrefix(trimmed, "date_le("):
		return evalDateLe(splitArgs(trimmed), env)
	}
	return false, fmt.Errorf("unsupported expression: %s", trimmed)
}

// splitArgs returns the top-level comma-separated arguments of a call,
// respecting nested parentheses so add(a,b) survives as one argument.
func splitArgs(call string) []string {
	open := strings.Index(call, "(")
	close := strings.LastIndex(call, ")")
	if open < 0 || close <= open {
		return nil
	}
	inside := call[open+1 : close]

	var parts []string
	depth := 0
	var cur strings.Builder
	for _, ch := range inside {
		switch ch {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		}
		if ch == ',' && depth == 0 {
			parts = append(parts, strings.TrimSpace(cur.String()))
			cur.Reset()
			continue
		}
		cur.WriteRune(ch)
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		parts = append(parts, s)
	}
	return parts
}

// resolve evaluates an argument token to a value: nested sum()/add()
// resolvers, numeric literals, quoted strings, or field references.
func resolve(token string, env *result.Envelope) (any, error) {
	token = strings.TrimSpace(token)

	if strings.HasPrefix(token, "sum(") && strings.HasSuffix(token, ")") {
		field := strings.TrimSpace(token[4 : len(token)-1])
		fr, ok := env.Fields[field]
		if !ok {
			return nil, nil
		}
		arr, ok := fr.Value.([]any)
		if !ok {
			return nil, nil
		}
		total := 0.0
		for _, item := range arr {
			if n, ok := toNumber(item); ok {
				total += n
			}
		}
		return total, nil
	}

	if strings.HasPrefix(token, "add(") {
		argv := splitArgs(token)
		if len(argv) != 2 {
			return nil, fmt.Errorf("add expects 2 arguments, got %d", len(argv))
		}
		total := 0.0
		for _, a := range argv {
			v, err := resolve(a, env)
			if err != nil {
				return nil, err
			}
			if n, ok := toNumber(v); ok {
				total += n
			}
		}
		return total, nil
	}

	if n, err := strconv.ParseFloat(token, 64); err == nil {
		return n, nil
	}
	if len(token) >= 2 && token[0] == '"' && token[len(token)-1] == '"' {
		return token[1 : len(token)-1], nil
	}

	fr, ok := env.Fields[token]
	if !ok {
		return nil, nil
	}
	return fr.Value, nil
}

func evalEquals(argv []string, env *result.Envelope) (bool, error) {
	if len(argv) < 2 {
		return false, fmt.Errorf("equals expects at least 2 arguments")
	}
	va, err := resolve(argv[0], env)
	if err != nil {
		return false, err
	}
	vb, err := resolve(argv[1], env)
	if err != nil {
		return false, err
	}
	na, okA := toNumber(va)
	nb, okB := toNumber(vb)
	if !okA || !okB {
		return false, nil
	}
	tol := 0.0
	if len(argv) >= 3 {
		spec := argv[2]
		if i := strings.Index(spec, "="); i >= 0 {
			spec = spec[i+1:]
		}
		t, err := strconv.ParseFloat(strings.TrimSpace(spec), 64)
		if err != nil {
			return false, fmt.Errorf("bad tolerance %q: %w", argv[2], err)
		}
		tol = t
	}
	return math.Abs(na-nb) <= tol, nil
}

func evalInSet(argv []string, env *result.Envelope) (bool, error) {
	if len(argv) != 2 {
		return false, fmt.Errorf("in_set expects 2 arguments")
	}
	v, err := resolve(argv[0], env)
	if err != nil {
		return false, err
	}
	needle := asString(v)

	var set []any
	literal := strings.ReplaceAll(argv[1], "'", `"`)
	if err := json.Unmarshal([]byte(literal), &set); err != nil {
		return false, fmt.Errorf("bad set literal %q: %w", argv[1], err)
	}
	for _, item := range set {
		if asString(item) == needle {
			return true, nil
		}
	}
	return false, nil
}

func evalMatch(argv []string, env *result.Envelope) (bool, error) {
	if len(argv) != 2 {
		return false, fmt.Errorf("match expects 2 arguments")
	}
	v, err := resolve(argv[0], env)
	if err != nil {
		return false, err
	}
	pat := strings.TrimSpace(argv[1])
	pat = strings.TrimPrefix(pat, `"`)
	pat = strings.TrimSuffix(pat, `"`)
	rx, err := regexp.Compile(pat)
	if err != nil {
		return false, fmt.Errorf("bad pattern %q: %w", pat, err)
	}
	return rx.MatchString(asString(v)), nil
}

func evalDateLe(argv []string, env *result.Envelope) (bool, error) {
	if len(argv) != 2 {
		return false, fmt.Errorf("date_le expects 2 arguments")
	}
	va, err := resolve(argv[0], env)
	if err != nil {
		return false, err
	}
	vb, err := resolve(argv[1], env)
	if err != nil {
		return false, err
	}
	ta, err := dateparse.ParseAny(asString(va))
	if err != nil {
		return false, fmt.Errorf("unparsable date %v: %w", va, err)
	}
	tb, err := dateparse.ParseAny(asString(vb))
	if err != nil {
		return false, fmt.Errorf("unparsable date %v: %w", vb, err)
	}
	return !ta.After(tb), nil
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", s)
	}
}
