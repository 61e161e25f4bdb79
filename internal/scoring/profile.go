package scoring

import "slices"

// ─── PROFILE TYPES ────────────────────────────────────────────────────────────

// Compatibility lists the types that tend to fit well or clash.
type Compatibility struct {
	BestTypes        []string `json:"best_types"`
	ChallengingTypes []string `json:"challenging_types"`
}

// Profile is the merged narrative content for one result. Every list is
// non-nil so presentation layers only ever check for emptiness.
type Profile struct {
	Type              string        `json:"type"`
	Label             string        `json:"label"`
	Summary           string        `json:"summary"`
	CoreTraits        []string      `json:"core_traits"`
	Strengths         []string      `json:"strengths"`
	Blindspots        []string      `json:"blindspots"`
	IdealCareers      []string      `json:"ideal_careers"`
	RelationshipStyle string        `json:"relationship_style"`
	CommunicationTips []string      `json:"communication_tips"`
	GrowthFocus       []string      `json:"growth_focus"`
	FriendsPerception string        `json:"friends_perception"`
	Compatibility     Compatibility `json:"compatibility"`
	RawTraitScores    TraitVector   `json:"raw_trait_scores"`
}

// CompatibilityEntry is the nested compatibility block of a table row.
// A nil field falls back to an empty list.
type CompatibilityEntry struct {
	BestTypes        *[]string `json:"best_types,omitempty" yaml:"best_types"`
	ChallengingTypes *[]string `json:"challenging_types,omitempty" yaml:"challenging_types"`
}

// ProfileEntry is one row of the static profile table. Nil fields were absent
// from the source data and take the fallback value during the merge.
type ProfileEntry struct {
	Label             *string             `json:"label,omitempty" yaml:"label"`
	Summary           *string             `json:"summary,omitempty" yaml:"summary"`
	CoreTraits        *[]string           `json:"core_traits,omitempty" yaml:"core_traits"`
	Strengths         *[]string           `json:"strengths,omitempty" yaml:"strengths"`
	Blindspots        *[]string           `json:"blindspots,omitempty" yaml:"blindspots"`
	IdealCareers      *[]string           `json:"ideal_careers,omitempty" yaml:"ideal_careers"`
	RelationshipStyle *string             `json:"relationship_style,omitempty" yaml:"relationship_style"`
	CommunicationTips *[]string           `json:"communication_tips,omitempty" yaml:"communication_tips"`
	GrowthFocus       *[]string           `json:"growth_focus,omitempty" yaml:"growth_focus"`
	FriendsPerception *string             `json:"friends_perception,omitempty" yaml:"friends_perception"`
	Compatibility     *CompatibilityEntry `json:"compatibility,omitempty" yaml:"compatibility"`
}

// ProfileTable maps a four-letter type code to its canned content.
type ProfileTable map[string]ProfileEntry

// ─── FALLBACK ─────────────────────────────────────────────────────────────────

const (
	FallbackLabel   = "Unknown Type"
	FallbackSummary = "Your responses are balanced across several traits."
)

// fallbackProfile is the safe default every table entry is merged over.
func fallbackProfile() Profile {
	return Profile{
		Label:             FallbackLabel,
		Summary:           FallbackSummary,
		CoreTraits:        []string{},
		Strengths:         []string{},
		Blindspots:        []string{},
		IdealCareers:      []string{},
		CommunicationTips: []string{},
		GrowthFocus:       []string{},
		Compatibility: Compatibility{
			BestTypes:        []string{},
			ChallengingTypes: []string{},
		},
	}
}

// merge overlays the fields present in e onto the fallback. Lists are copied
// so that later appends never reach the table's backing arrays.
func (e ProfileEntry) merge() Profile {
	p := fallbackProfile()
	setString(&p.Label, e.Label)
	setString(&p.Summary, e.Summary)
	setString(&p.RelationshipStyle, e.RelationshipStyle)
	setString(&p.FriendsPerception, e.FriendsPerception)
	setList(&p.CoreTraits, e.CoreTraits)
	setList(&p.Strengths, e.Strengths)
	setList(&p.Blindspots, e.Blindspots)
	setList(&p.IdealCareers, e.IdealCareers)
	setList(&p.CommunicationTips, e.CommunicationTips)
	setList(&p.GrowthFocus, e.GrowthFocus)
	if e.Compatibility != nil {
		setList(&p.Compatibility.BestTypes, e.Compatibility.BestTypes)
		setList(&p.Compatibility.ChallengingTypes, e.Compatibility.ChallengingTypes)
	}
	return p
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setList(dst *[]string, src *[]string) {
	if src != nil && *src != nil {
		*dst = slices.Clone(*src)
	}
}

// ─── EXTRAS ───────────────────────────────────────────────────────────────────

// ExtraThreshold is the inclusive magnitude at which an axis contributes
// data-driven bullets.
const ExtraThreshold = 3

type extraBundle struct {
	coreTrait string
	strength  string
	blindspot string // may be empty
}

// extraBundles holds the positive-direction bundle at [0] and the
// negative-direction bundle at [1] for each axis.
var extraBundles = map[Axis][2]extraBundle{
	AxisEI: {
		{coreTrait: "Energized by people and interaction", strength: "Comfortable networking and connecting groups"},
		{coreTrait: "Energized by time alone or in small groups", strength: "Good at deep focus and reflection"},
	},
	AxisSN: {
		{coreTrait: "Future-focused and imaginative", strength: "Sees patterns and possibilities others miss"},
		{coreTrait: "Grounded in reality and practical details", strength: "Good at noticing what’s concrete and proven"},
	},
	AxisTF: {
		{coreTrait: "Logical and principle-driven", strength: "Can stay objective during tough decisions", blindspot: "May come off as blunt if stressed"},
		{coreTrait: "Empathy and harmony matter a lot to you", strength: "Good at reading emotional tone in a room", blindspot: "May avoid necessary conflict too long"},
	},
	AxisJP: {
		{coreTrait: "Likes structure, plans, and clarity", strength: "Good at organizing and driving closure", blindspot: "May get frustrated with last-minute changes"},
		{coreTrait: "Flexible, go-with-the-flow approach", strength: "Adaptable when plans shift suddenly", blindspot: "Can procrastinate or leave things open too long"},
	},
}

// appendExtras adds at most one bundle per axis, in axis order.
func appendExtras(p *Profile, v TraitVector) {
	for _, a := range Axes {
		val := v.Get(a)
		var b extraBundle
		switch {
		case val >= ExtraThreshold:
			b = extraBundles[a][0]
		case val <= -ExtraThreshold:
			b = extraBundles[a][1]
		default:
			continue
		}
		p.CoreTraits = append(p.CoreTraits, b.coreTrait)
		p.Strengths = append(p.Strengths, b.strength)
		if b.blindspot != "" {
			p.Blindspots = append(p.Blindspots, b.blindspot)
		}
	}
}
