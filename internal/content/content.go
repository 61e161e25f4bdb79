// Package content loads the embedded question bank, profile table and
// pricing plans. Everything here is read once at startup and shared
// read-only afterwards.
package content

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/nyashahama/realyou-backend/internal/scoring"
	"github.com/nyashahama/realyou-backend/internal/tier"
)

var (
	//go:embed questions.yaml
	questionsYAML []byte

	//go:embed profiles.yaml
	profilesYAML []byte

	//go:embed plans.yaml
	plansYAML []byte
)

// Mode selects which phrasing of each question is shown.
type Mode string

const (
	ModeClassic Mode = "classic" // professional wording
	ModeModern  Mode = "modern"  // casual wording, falls back to classic
)

// ParseMode accepts "classic" and "modern", plus the older aliases "pro" and
// "genz". Empty means classic.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "classic", "pro":
		return ModeClassic, nil
	case "modern", "genz":
		return ModeModern, nil
	}
	return "", fmt.Errorf("unknown question mode %q: want classic or modern", s)
}

// Prompt is a question as shown to a respondent. It deliberately omits the
// scoring metadata.
type Prompt struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Plan is one pricing card.
type Plan struct {
	ID          tier.Tier `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	PriceCents  int64     `json:"price_cents" yaml:"price_cents"`
	Tagline     string    `json:"tagline" yaml:"tagline"`
	Description string    `json:"description" yaml:"description"`
	Recommended bool      `json:"recommended,omitempty" yaml:"recommended"`
	Badge       string    `json:"badge,omitempty" yaml:"badge"`
	Features    []string  `json:"features" yaml:"features"`
}

// Content is the validated, immutable bundle of static data.
type Content struct {
	questions []scoring.Question
	Bank      *scoring.Bank
	Profiles  scoring.ProfileTable
	Plans     []Plan
}

// Load decodes and validates the embedded files.
func Load() (*Content, error) {
	return Parse(questionsYAML, profilesYAML, plansYAML)
}

// Parse decodes and validates the given documents. It exists so tests and
// tooling can load alternative content.
func Parse(questions, profiles, plans []byte) (*Content, error) {
	var qdoc struct {
		Questions []scoring.Question `yaml:"questions"`
	}
	if err := decodeStrict(questions, &qdoc); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	var table scoring.ProfileTable
	if err := decodeStrict(profiles, &table); err != nil {
		return nil, fmt.Errorf("decode profiles: %w", err)
	}
	var pdoc struct {
		Plans []Plan `yaml:"plans"`
	}
	if err := decodeStrict(plans, &pdoc); err != nil {
		return nil, fmt.Errorf("decode plans: %w", err)
	}

	c := &Content{
		questions: qdoc.Questions,
		Bank:      scoring.NewBank(qdoc.Questions),
		Profiles:  table,
		Plans:     pdoc.Plans,
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func decodeStrict(data []byte, dst any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(dst)
}

// validate collects every problem so a bad content edit is fixed in one pass.
// Duplicate ids are not an error; see Duplicates.
func (c *Content) validate() error {
	var errs []error
	if len(c.questions) == 0 {
		errs = append(errs, errors.New("question bank is empty"))
	}
	for _, q := range c.questions {
		if err := q.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	counts := c.Bank.CountByAxis()
	for _, a := range scoring.Axes {
		if counts[a] == 0 {
			errs = append(errs, fmt.Errorf("axis %s has no questions", a))
		}
	}
	for _, code := range scoring.AllTypes() {
		entry, ok := c.Profiles[code]
		if !ok {
			errs = append(errs, fmt.Errorf("profile %s is missing", code))
			continue
		}
		if entry.Label == nil || entry.Summary == nil {
			errs = append(errs, fmt.Errorf("profile %s needs a label and summary", code))
		}
	}
	for code := range c.Profiles {
		if !scoring.ValidType(code) || scoring.NormalizeType(code) != code {
			errs = append(errs, fmt.Errorf("profile key %q is not a type code", code))
		}
	}
	seen := map[tier.Tier]bool{}
	for _, p := range c.Plans {
		if !p.ID.Valid() {
			errs = append(errs, fmt.Errorf("plan %q is not a known tier", p.ID))
		}
		seen[p.ID] = true
	}
	for _, t := range []tier.Tier{tier.Free, tier.Standard, tier.Premium} {
		if !seen[t] {
			errs = append(errs, fmt.Errorf("plan %s is missing", t))
		}
	}
	return errors.Join(errs...)
}

// Engine builds a scoring engine over this content.
func (c *Content) Engine() *scoring.Engine {
	return scoring.NewEngine(c.Bank, c.Profiles)
}

// Duplicates lists question ids declared more than once. The later
// declaration is the one that scores.
func (c *Content) Duplicates() []string {
	return c.Bank.Duplicates()
}

// Questions returns the prompts in declaration order for mode. Modern falls
// back to the classic wording when a question has no casual variant.
func (c *Content) Questions(mode Mode) []Prompt {
	out := make([]Prompt, 0, len(c.questions))
	for _, q := range c.questions {
		text := q.Pro
		if mode == ModeModern && q.GenZ != "" {
			text = q.GenZ
		}
		out = append(out, Prompt{ID: q.ID, Text: text})
	}
	return out
}

// Plan looks up the pricing card for t.
func (c *Content) Plan(t tier.Tier) (Plan, bool) {
	for _, p := range c.Plans {
		if p.ID == t {
			return p, true
		}
	}
	return Plan{}, false
}
