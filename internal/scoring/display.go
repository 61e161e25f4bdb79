package scoring

import (
	"fmt"
	"sort"
)

// Display helpers shared by the JSON results view, the PDF renderer and the
// CLI. They only format; nothing here feeds back into scoring.

// ─── PERCENTAGE SPLIT ─────────────────────────────────────────────────────────

const splitClamp = 10

// Split is the display percentage for the positive (First) and negative
// (Second) side of an axis. First + Second == 100.
type Split struct {
	First  int `json:"first_percent"`
	Second int `json:"second_percent"`
}

// PercentageSplit maps v, clamped to [-10, 10], linearly onto [20, 80].
func PercentageSplit(v int) Split {
	clamped := min(max(v, -splitClamp), splitClamp)
	// 50 + clamped/10*30 is always integral for integer input.
	first := 50 + clamped*3
	return Split{First: first, Second: 100 - first}
}

// ─── INTENSITY ────────────────────────────────────────────────────────────────

type Intensity string

const (
	IntensityBalanced Intensity = "balanced"
	IntensitySlight   Intensity = "slight"
	IntensityModerate Intensity = "moderate"
	IntensityStrong   Intensity = "strong"
)

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// IntensityLabel buckets |v|. Each band includes its upper bound.
func IntensityLabel(v int) Intensity {
	switch a := abs(v); {
	case a == 0:
		return IntensityBalanced
	case a <= 2:
		return IntensitySlight
	case a <= 5:
		return IntensityModerate
	default:
		return IntensityStrong
	}
}

// phrase is the wording used inside axis summaries.
func (i Intensity) phrase() string {
	switch i {
	case IntensityBalanced:
		return "a balanced position"
	case IntensitySlight:
		return "a slight preference"
	case IntensityModerate:
		return "a moderate preference"
	default:
		return "a strong preference"
	}
}

// ─── AXIS META ────────────────────────────────────────────────────────────────

// Meta carries the human labels for an axis.
type Meta struct {
	FirstLetter  string `json:"first_letter"`
	SecondLetter string `json:"second_letter"`
	FirstLabel   string `json:"first_label"`
	SecondLabel  string `json:"second_label"`
	AxisLabel    string `json:"axis_label"`
}

// AxisMeta returns the labels for a; unknown axes get generic labels.
func AxisMeta(a Axis) Meta {
	switch a {
	case AxisEI:
		return Meta{"E", "I", "Extraversion (E)", "Introversion (I)", "how you recharge and use your social energy"}
	case AxisSN:
		return Meta{"N", "S", "Intuition (N)", "Sensing (S)", "how you take in information: big-picture patterns vs concrete details"}
	case AxisTF:
		return Meta{"T", "F", "Thinking (T)", "Feeling (F)", "how you tend to make decisions"}
	case AxisJP:
		return Meta{"J", "P", "Judging (J)", "Perceiving (P)", "how you like to structure your outer world"}
	}
	return Meta{"A", "B", "Side A", "Side B", "this dimension"}
}

// AxisSummary is the one-line reading of an axis value.
func AxisSummary(a Axis, v int) string {
	m := AxisMeta(a)
	s := PercentageSplit(v)
	intensity := IntensityLabel(v).phrase()

	if v == 0 {
		return fmt.Sprintf("%s: about %d%% / %d%% — %s on this axis. You can move fairly easily between both sides of %s.",
			a, s.First, s.Second, intensity, m.AxisLabel)
	}

	toward, leaning := m.FirstLabel, s.First
	if v < 0 {
		toward, leaning = m.SecondLabel, s.Second
	}
	return fmt.Sprintf("%s: about %d%% toward %s (%d%% / %d%%). That shows %s in %s.",
		a, leaning, toward, s.First, s.Second, intensity, m.AxisLabel)
}

// ─── FLEXIBILITY ──────────────────────────────────────────────────────────────

// AxisValue pairs an axis with its raw score.
type AxisValue struct {
	Axis  Axis `json:"axis"`
	Value int  `json:"value"`
}

// FlexibilityRank orders the axes from most flexible (smallest |v|) to most
// stable. Ties keep the EI, SN, TF, JP order.
func FlexibilityRank(v TraitVector) []AxisValue {
	out := make([]AxisValue, 0, len(Axes))
	for _, a := range Axes {
		out = append(out, AxisValue{Axis: a, Value: v.Get(a)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return abs(out[i].Value) < abs(out[j].Value)
	})
	return out
}

// RankLabel names a position in the flexibility ranking.
func RankLabel(rank int) string {
	switch rank {
	case 0:
		return "Most flexible"
	case len(Axes) - 1:
		return "Most stable"
	}
	return fmt.Sprintf("Level %d", rank+1)
}

// FlexibilityPhrase describes how easily an axis with value v can shift.
func FlexibilityPhrase(v int) string {
	switch a := abs(v); {
	case a == 0:
		return "highly flexible for you right now"
	case a <= 2:
		return "quite flexible and can shift over time"
	case a <= 5:
		return "moderately stable but still adaptable"
	default:
		return "pretty stable unless life hits you hard"
	}
}

type lifeEvents struct{ major, minor string }

var flexExamples = map[Axis]lifeEvents{
	AxisEI: {
		major: "Moving to a new city, taking on a public-facing leadership role, long seasons of isolation or burnout, major loss that changes how much social energy you have to give.",
		minor: "New friend group, switching from remote to in-person work (or vice versa), joining a club or team, changing how often you go out vs stay home.",
	},
	AxisSN: {
		major: "Long-term work in a detail-heavy or highly creative field, advanced education, big career pivot (hands-on trade to strategy role or the reverse).",
		minor: "New routines that demand either more structure and facts or more brainstorming and vision.",
	},
	AxisTF: {
		major: "Becoming a parent or caregiver, going through therapy, major conflict or breakup, serious work conflict that forces you to rethink how you make decisions.",
		minor: "Getting feedback about being ‘too blunt’ or ‘too soft’, taking on a mentoring or coaching role, dealing with team decisions where people and logic both matter.",
	},
	AxisJP: {
		major: "Military experience, running your own business, taking a high-responsibility role, long-term chaos that forces you to either tighten structure or loosen control.",
		minor: "New job with strict deadlines, switching to gig/freelance work, living with someone more structured or more spontaneous than you, managing multiple projects at once.",
	},
}

// FlexLine is one entry of the premium flexibility breakdown.
type FlexLine struct {
	Axis        Axis   `json:"axis"`
	Value       int    `json:"value"`
	Heading     string `json:"heading"`
	Flexibility string `json:"flexibility"`
	AxisLabel   string `json:"axis_label"`
	Major       string `json:"major_shifts"`
	Minor       string `json:"everyday_nudges"`
}

// FlexibilityLine builds the line for av at position rank.
func FlexibilityLine(av AxisValue, rank int) FlexLine {
	m := AxisMeta(av.Axis)
	ex, ok := flexExamples[av.Axis]
	if !ok {
		ex = flexExamples[AxisEI]
	}
	return FlexLine{
		Axis:        av.Axis,
		Value:       av.Value,
		Heading:     fmt.Sprintf("%s: %s – %s vs %s", RankLabel(rank), av.Axis, m.FirstLabel, m.SecondLabel),
		Flexibility: FlexibilityPhrase(av.Value),
		AxisLabel:   m.AxisLabel,
		Major:       ex.major,
		Minor:       ex.minor,
	}
}

// FlexibilityLines ranks v and renders every line in order.
func FlexibilityLines(v TraitVector) []FlexLine {
	ranked := FlexibilityRank(v)
	out := make([]FlexLine, len(ranked))
	for i, av := range ranked {
		out[i] = FlexibilityLine(av, i)
	}
	return out
}
