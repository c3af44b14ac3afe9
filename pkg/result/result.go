// Package result defines the extraction result envelope: per-field values
// with confidence scores and character-span evidence.
package result

// Span is a document-absolute character range cited as evidence for an
// extracted value. End is exclusive. Page and BBox are optional and only
// present when the source document carries geometry.
type Span struct {
	Page  *int  `json:"page,omitempty"`
	Start int   `json:"start"`
	End   int   `json:"end"`
	BBox  *Rect `json:"bbox,omitempty"`
}

// Rect is an evidence bounding box in source geometry.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Field is a single extracted field candidate. A field with no spans must
// carry a nil value: evidence-free values are never surfaced.
type Field struct {
	Value      any            `json:"value"`
	Confidence float64        `json:"confidence"`
	Spans      []Span         `json:"spans"`
	Warnings   []string       `json:"warnings,omitempty"`
	Meta       map[string]any `json:"meta,omitempty"`
}

// Status classifies the document-level outcome.
type Status string

const (
	StatusOK          Status = "ok"
	StatusNeedsReview Status = "needs_review"
	StatusFailed      Status = "failed"
)

// Validation records the outcome of rule evaluation over the envelope.
type Validation struct {
	RulesPassed []string `json:"rules_passed"`
	RulesFailed []string `json:"rules_failed"`
}

// Stats carries aggregate signals about an extraction run.
type Stats struct {
	CriticalConfidence float64 `json:"critical_confidence"`
	Backend            string  `json:"backend"`
	Model              string  `json:"model,omitempty"`
	Pages              int     `json:"pages,omitempty"`
	TokensEstimated    int     `json:"tokens_estimated,omitempty"`
}

// Envelope is the extraction output: one per chunk before merging, one per
// document afterwards.
type Envelope struct {
	Fields     map[string]Field `json:"fields"`
	Warnings   []string         `json:"warnings"`
	Validation Validation       `json:"validation"`
	Status     Status           `json:"status"`
	Stats      Stats            `json:"stats"`
}

// NewEnvelope returns an empty ok envelope with initialized maps.
func NewEnvelope() *Envelope {
	return &Envelope{
		Fields: map[string]Field{},
		Validation: Validation{
			RulesPassed: []string{},
			RulesFailed: []string{},
		},
		Warnings: []string{},
		Status:   StatusOK,
	}
}

// AddWarning appends a document-level warning.
func (e *Envelope) AddWarning(w string) {
	e.Warnings = append(e.Warnings, w)
}

// Normalize enforces the span-or-null invariant on every field: a field
// without spans has its value nulled and a missing_span warning appended.
// It is called wherever a Field is finalized, not merely checked.
func (e *Envelope) Normalize() {
	for name, f := range e.Fields {
		if len(f.Spans) == 0 && f.Value != nil {
			f.Value = nil
			f.Warnings = append(f.Warnings, "missing_span")
			e.Fields[name] = f
		}
	}
}

// ClampConfidence bounds a raw confidence to [0,1].
func ClampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// EarliestSpan returns the smallest span start of the field, used as the
// deterministic merge tie-break. Fields without spans sort last.
func (f Field) EarliestSpan() int {
	if len(f.Spans) == 0 {
		return int(^uint(0) >> 1)
	}
	min := f.Spans[0].Start
	for _, s := range f.Spans[1:] {
		if s.Start < min {
			min = s.Start
		}
	}
	return min
}
