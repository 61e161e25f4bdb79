package scoring

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
)

// ─── QUESTIONS ────────────────────────────────────────────────────────────────

// Question is one Likert statement in the bank.
//
// PositiveTrait names the letter that "agree" supports. When it is empty the
// question predates the field and agreement always pushes the axis towards
// its positive letter.
type Question struct {
	ID            string `json:"id" yaml:"id"`
	Dimension     Axis   `json:"dimension" yaml:"dimension"`
	PositiveTrait string `json:"positive_trait,omitempty" yaml:"positive_trait,omitempty"`
	Pro           string `json:"pro" yaml:"pro"`
	GenZ          string `json:"genz,omitempty" yaml:"genz,omitempty"`
}

// Validate checks the fields the engine relies on. The engine itself never
// calls it: unknown dimensions are skipped at bank build time. Loaders use it
// to reject bad content before it reaches production.
func (q Question) Validate() error {
	var errs []error
	if strings.TrimSpace(q.ID) == "" {
		errs = append(errs, errors.New("id is required"))
	}
	if !q.Dimension.Valid() {
		errs = append(errs, fmt.Errorf("unknown dimension %q", q.Dimension))
	}
	if q.PositiveTrait != "" && q.Dimension.Valid() && !q.Dimension.Has(q.PositiveTrait) {
		errs = append(errs, fmt.Errorf("positive_trait %q does not belong to axis %s", q.PositiveTrait, q.Dimension))
	}
	if strings.TrimSpace(q.Pro) == "" {
		errs = append(errs, errors.New("pro prompt is required"))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("question %q: %w", q.ID, errors.Join(errs...))
}

// sign is +1 when agreeing with q pushes its axis towards the positive letter
// and -1 when the statement is phrased for the opposite pole.
func (q Question) sign() int {
	if q.PositiveTrait == "" || q.PositiveTrait == q.Dimension.PositiveLetter() {
		return 1
	}
	return -1
}

// ─── BANK ─────────────────────────────────────────────────────────────────────

// Bank is the read-only id → question lookup built once per content load.
type Bank struct {
	byID  map[string]Question
	dupes []string
}

// NewBank indexes questions in a single pass. Entries without an id or a
// dimension are skipped. When two entries share an id the later one wins,
// even when its dimension is unknown; such an entry shadows the earlier one
// and answers to it are ignored. Overwritten ids are reported by Duplicates.
func NewBank(questions []Question) *Bank {
	b := &Bank{byID: make(map[string]Question, len(questions))}
	for _, q := range questions {
		if q.ID == "" || q.Dimension == "" {
			continue
		}
		if _, seen := b.byID[q.ID]; seen {
			b.dupes = append(b.dupes, q.ID)
		}
		b.byID[q.ID] = q
	}
	return b
}

// Lookup returns the effective question for id.
func (b *Bank) Lookup(id string) (Question, bool) {
	if b == nil {
		return Question{}, false
	}
	q, ok := b.byID[id]
	if !ok || !q.Dimension.Valid() {
		return Question{}, false
	}
	return q, true
}

// Len is the number of distinct question ids that feed a known axis.
func (b *Bank) Len() int {
	if b == nil {
		return 0
	}
	n := 0
	for _, q := range b.byID {
		if q.Dimension.Valid() {
			n++
		}
	}
	return n
}

// Duplicates lists ids that appeared more than once, in the order the repeats
// were seen. The slice is a copy.
func (b *Bank) Duplicates() []string {
	if b == nil || len(b.dupes) == 0 {
		return nil
	}
	return append([]string(nil), b.dupes...)
}

// CountByAxis reports how many distinct questions feed each axis.
func (b *Bank) CountByAxis() map[Axis]int {
	out := make(map[Axis]int, len(Axes))
	if b == nil {
		return out
	}
	for _, q := range b.byID {
		if !q.Dimension.Valid() {
			continue
		}
		out[q.Dimension]++
	}
	return out
}

// ─── ANSWERS ──────────────────────────────────────────────────────────────────

// maxMagnitude bounds accepted values so the integer arithmetic stays defined.
const maxMagnitude = 1 << 31

// Value is a lenient numeric Likert response. It decodes from a JSON number or
// a numeric string; anything else (null, booleans, objects, text, NaN, ±Inf)
// decodes without error into an invalid Value that the engine drops.
type Value struct {
	n  float64
	ok bool
}

// IntValue wraps a plain integer response.
func IntValue(n int) Value { return Value{n: float64(n), ok: true} }

// FloatValue wraps a float response. Non-finite or huge inputs are invalid.
func FloatValue(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) >= maxMagnitude {
		return Value{}
	}
	return Value{n: f, ok: true}
}

// InvalidValue is the value of a response that failed to parse.
func InvalidValue() Value { return Value{} }

// ParseValue applies the same rules as JSON decoding to a bare string.
func ParseValue(s string) Value {
	s = strings.TrimSpace(s)
	if s == "" {
		return Value{}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Value{}
	}
	return FloatValue(f)
}

// Valid reports whether the value parsed as a finite number.
func (v Value) Valid() bool { return v.ok }

// Int rounds half away from zero. Only meaningful when Valid.
func (v Value) Int() int { return int(math.Round(v.n)) }

// UnmarshalJSON never fails on scalar input; it only records whether the
// payload was numeric.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*v = Value{}
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		*v = ParseValue(s)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		*v = ParseValue(string(data))
	}
	return nil
}

// MarshalJSON writes the number, or null for an invalid value.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.ok {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(v.n, 'f', -1, 64)), nil
}

// Answer is one respondent's response to one question.
type Answer struct {
	QuestionID string `json:"question_id"`
	Value      Value  `json:"value"`
}

// Answers is a submission as clients send it: either a list of
// {"question_id", "value"} pairs or an object keyed by question id. The object
// form is expanded in sorted id order.
type Answers []Answer

func (a *Answers) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var byID map[string]Value
		if err := json.Unmarshal(data, &byID); err != nil {
			return err
		}
		out := make(Answers, 0, len(byID))
		for _, id := range slices.Sorted(maps.Keys(byID)) {
			out = append(out, Answer{QuestionID: id, Value: byID[id]})
		}
		*a = out
		return nil
	}
	var list []Answer
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*a = list
	return nil
}

// NeutralValue is the Likert midpoint; it contributes nothing to any axis.
const NeutralValue = 3

// delta maps a Likert response onto the signed axis contribution:
// 1..5 → -2..+2.
func delta(v Value) int {
	return v.Int() - NeutralValue
}
