package report_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyashahama/realyou-backend/internal/narrative"
	"github.com/nyashahama/realyou-backend/internal/report"
	"github.com/nyashahama/realyou-backend/internal/scoring"
	"github.com/nyashahama/realyou-backend/internal/tier"
)

func result() scoring.Result {
	return scoring.Result{
		TraitVector: scoring.TraitVector{EI: -4, SN: 1, TF: 0, JP: 7},
		TypeCode:    "INTJ",
		Profile: scoring.Profile{
			Type:              "INTJ",
			Label:             "The Strategist",
			Summary:           "Independent and strategic.",
			CoreTraits:        []string{"c1", "c2", "c3"},
			Strengths:         []string{"s1", "s2", "s3", "s4"},
			Blindspots:        []string{"b1", "b2", "b3"},
			IdealCareers:      []string{"i1", "i2", "i3"},
			CommunicationTips: []string{"t1", "t2", "t3"},
			GrowthFocus:       []string{"g1", "g2", "g3"},
			RelationshipStyle: "Loyal.",
			Compatibility: scoring.Compatibility{
				BestTypes:        []string{"ENFP", "ENTP", "INFJ"},
				ChallengingTypes: []string{"ESFP"},
			},
		},
	}
}

func TestBuild_Free(t *testing.T) {
	r := report.Build(result(), tier.Free, nil)

	assert.Equal(t, "Free (Starter)", r.PlanLabel)
	assert.Equal(t, []string{"s1", "s2"}, r.Strengths)
	assert.Equal(t, []string{"c1", "c2"}, r.CoreTraits)
	assert.Equal(t, []string{"g1", "g2"}, r.GrowthFocus)
	assert.Empty(t, r.RelationshipStyle)
	assert.Nil(t, r.Compatibility)
	assert.Nil(t, r.DeepDive)
	assert.Empty(t, r.Flexibility)
	assert.Empty(t, r.StandardSummary)
	assert.False(t, r.Unlocked(report.SectionPDF))
	assert.False(t, r.Unlocked(report.SectionCompatibility))
	require.Len(t, r.Axes, 4)
	assert.Len(t, r.Letters, 4)
}

func TestBuild_Standard(t *testing.T) {
	r := report.Build(result(), tier.Standard, nil)

	assert.Len(t, r.Strengths, 4)
	assert.Equal(t, "Loyal.", r.RelationshipStyle)
	require.NotNil(t, r.Compatibility)
	assert.Len(t, r.Compatibility.BestTypes, 3)
	assert.Contains(t, r.StandardSummary, "you lead with c1, rely on c2, and struggle most when b1.")
	assert.True(t, r.Unlocked(report.SectionCompatibility))
	assert.False(t, r.Unlocked(report.SectionDeepDive))
	assert.Nil(t, r.DeepDive)
}

func TestBuild_PremiumUsesTemplateWhenNoNarrative(t *testing.T) {
	r := report.Build(result(), tier.Premium, nil)

	require.NotNil(t, r.DeepDive)
	assert.Equal(t, narrative.SourceTemplate, r.DeepDive.Source)
	require.Len(t, r.Flexibility, 4)
	assert.Equal(t, scoring.AxisTF, r.Flexibility[0].Axis)
	assert.Equal(t, scoring.AxisJP, r.Flexibility[3].Axis)
	assert.Empty(t, r.Locked)
	assert.Empty(t, r.StandardSummary)
}

func TestBuild_PremiumKeepsStoredNarrative(t *testing.T) {
	stored := &narrative.Narrative{Story: []string{"x"}, Coach: []string{"y"}, Source: narrative.SourceDeepSeek}
	r := report.Build(result(), tier.Premium, stored)
	require.NotNil(t, r.DeepDive)
	assert.Equal(t, narrative.SourceDeepSeek, r.DeepDive.Source)
}

func TestBuild_UnknownTierIsFree(t *testing.T) {
	r := report.Build(result(), tier.Tier("gold"), nil)
	assert.Equal(t, tier.Free, r.Tier)
}

func TestAxes(t *testing.T) {
	axes := report.Axes(scoring.TraitVector{EI: -4, SN: 12})
	require.Len(t, axes, 4)

	ei := axes[0]
	assert.Equal(t, scoring.AxisEI, ei.Axis)
	assert.Equal(t, scoring.Split{First: 38, Second: 62}, ei.Split)
	assert.Equal(t, scoring.IntensityModerate, ei.Intensity)
	assert.Equal(t, "Introversion (I)", ei.SecondLabel)

	assert.Equal(t, scoring.Split{First: 80, Second: 20}, axes[1].Split)
	assert.Equal(t, scoring.IntensityBalanced, axes[2].Intensity)
}
