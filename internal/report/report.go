// Package report turns a scored result into the tier-gated view shared by
// the JSON API, the PDF renderer and the CLI.
package report

import (
	"fmt"

	"github.com/nyashahama/realyou-backend/internal/narrative"
	"github.com/nyashahama/realyou-backend/internal/scoring"
	"github.com/nyashahama/realyou-backend/internal/tier"
)

// Section names reported in Locked so clients can render upgrade teasers.
const (
	SectionRelationshipStyle = "relationship_style"
	SectionCompatibility     = "compatibility"
	SectionFlexibility       = "flexibility"
	SectionDeepDive          = "deep_dive"
	SectionCompatibilityTool = "compatibility_tool"
	SectionPDF               = "pdf"
)

// Axis is one row of the trait breakdown.
type Axis struct {
	scoring.Meta
	Axis      scoring.Axis      `json:"axis"`
	Value     int               `json:"value"`
	Split     scoring.Split     `json:"split"`
	Intensity scoring.Intensity `json:"intensity"`
	Summary   string            `json:"summary"`
}

// Report is the view of one result at one tier. Fields a tier may not see
// are left at their zero value and listed in Locked.
type Report struct {
	Tier            tier.Tier           `json:"tier"`
	PlanLabel       string              `json:"plan_label"`
	TypeCode        string              `json:"type_code"`
	Label           string              `json:"label"`
	Summary         string              `json:"summary"`
	StandardSummary string              `json:"standard_summary,omitempty"`
	TraitVector     scoring.TraitVector `json:"trait_vector"`
	Axes            []Axis              `json:"axes"`
	Letters         []scoring.Letter    `json:"letters"`

	CoreTraits        []string `json:"core_traits"`
	Strengths         []string `json:"strengths"`
	Blindspots        []string `json:"blindspots"`
	IdealCareers      []string `json:"ideal_careers"`
	CommunicationTips []string `json:"communication_tips"`
	GrowthFocus       []string `json:"growth_focus"`
	FriendsPerception string   `json:"friends_perception"`

	RelationshipStyle string                 `json:"relationship_style,omitempty"`
	Compatibility     *scoring.Compatibility `json:"compatibility,omitempty"`
	Flexibility       []scoring.FlexLine     `json:"flexibility,omitempty"`
	DeepDive          *narrative.Narrative   `json:"deep_dive,omitempty"`

	Locked []string `json:"locked"`
}

// Build gates res for t. deepDive is only used for premium; when it is nil
// or empty the template narrative is used instead.
func Build(res scoring.Result, t tier.Tier, deepDive *narrative.Narrative) Report {
	if !t.Valid() {
		t = tier.Free
	}
	p := res.Profile

	r := Report{
		Tier:              t,
		PlanLabel:         t.Label(),
		TypeCode:          res.TypeCode,
		Label:             p.Label,
		Summary:           p.Summary,
		TraitVector:       res.TraitVector,
		Axes:              Axes(res.TraitVector),
		Letters:           scoring.Letters(res.TypeCode),
		CoreTraits:        tier.VisibleItems(p.CoreTraits, t),
		Strengths:         tier.VisibleItems(p.Strengths, t),
		Blindspots:        tier.VisibleItems(p.Blindspots, t),
		IdealCareers:      tier.VisibleItems(p.IdealCareers, t),
		CommunicationTips: tier.VisibleItems(p.CommunicationTips, t),
		GrowthFocus:       tier.VisibleItems(p.GrowthFocus, t),
		FriendsPerception: p.FriendsPerception,
		Locked:            []string{},
	}

	if t.Paid() {
		r.RelationshipStyle = p.RelationshipStyle
		r.Compatibility = &scoring.Compatibility{
			BestTypes:        tier.VisibleItems(p.Compatibility.BestTypes, t),
			ChallengingTypes: tier.VisibleItems(p.Compatibility.ChallengingTypes, t),
		}
	} else {
		r.Locked = append(r.Locked, SectionRelationshipStyle, SectionCompatibility)
	}

	if t == tier.Standard {
		r.StandardSummary = standardSummary(p)
	}

	if t.AtLeast(tier.Premium) {
		r.Flexibility = scoring.FlexibilityLines(res.TraitVector)
		n := narrative.Template(res)
		if deepDive != nil && !deepDive.Empty() {
			n = *deepDive
		}
		r.DeepDive = &n
	} else {
		r.Locked = append(r.Locked, SectionFlexibility, SectionDeepDive, SectionCompatibilityTool, SectionPDF)
	}
	return r
}

// Axes renders the four-axis breakdown in fixed order.
func Axes(v scoring.TraitVector) []Axis {
	out := make([]Axis, 0, len(scoring.Axes))
	for _, a := range scoring.Axes {
		val := v.Get(a)
		out = append(out, Axis{
			Meta:      scoring.AxisMeta(a),
			Axis:      a,
			Value:     val,
			Split:     scoring.PercentageSplit(val),
			Intensity: scoring.IntensityLabel(val),
			Summary:   scoring.AxisSummary(a, val),
		})
	}
	return out
}

func standardSummary(p scoring.Profile) string {
	dominant, secondary, blind := "your strongest traits", "your backup traits", "your most common stress habits"
	if len(p.CoreTraits) > 0 {
		dominant = p.CoreTraits[0]
	}
	if len(p.CoreTraits) > 1 {
		secondary = p.CoreTraits[1]
	}
	if len(p.Blindspots) > 0 {
		blind = p.Blindspots[0]
	}
	return fmt.Sprintf("Your responses show a clear pattern: you lead with %s, rely on %s, and struggle most when %s. This version of your report helps you understand why these patterns show up — and what to do with them.",
		dominant, secondary, blind)
}

// Unlocked reports whether section is visible in r.
func (r Report) Unlocked(section string) bool {
	for _, s := range r.Locked {
		if s == section {
			return false
		}
	}
	return true
}
