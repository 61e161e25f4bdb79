package narrative

import (
	"context"
	"fmt"
	"strings"

	"github.com/nyashahama/realyou-backend/internal/scoring"
)

// CoachIntro heads the coach view in every renderer.
const CoachIntro = "Here are a few straight-talk pointers based on your pattern:"

// templateNarrator fills fixed sentences from the profile. It never fails.
type templateNarrator struct{}

// NewTemplateNarrator returns the deterministic narrator used when no LLM is
// configured or every LLM call failed.
func NewTemplateNarrator() Narrator { return templateNarrator{} }

func (templateNarrator) Narrate(_ context.Context, res scoring.Result) (Narrative, error) {
	return Template(res), nil
}

func firstOr(items []string, fallback string) string {
	if len(items) > 0 && items[0] != "" {
		return items[0]
	}
	return fallback
}

func joinOr(items []string, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	return strings.Join(items, ", ")
}

// Template builds the narrative without any I/O.
func Template(res scoring.Result) Narrative {
	p := res.Profile

	code := res.TypeCode
	if code == "" {
		code = "Profile"
	}
	name := p.Label
	if name == "" {
		name = "Your Personality Type"
	}
	wiredTo := "move through the world in a focused, intentional way."
	if p.Summary != "" {
		wiredTo = strings.ToLower(p.Summary)
	}
	bestTypes := joinOr(p.Compatibility.BestTypes, "a mix of types who respect your wiring")
	challenging := joinOr(p.Compatibility.ChallengingTypes, "types whose stress style clashes with yours")
	relStyle := p.RelationshipStyle
	if relStyle == "" {
		relStyle = "bring your own mix of loyalty, intensity, and presence"
	}

	story := []string{
		fmt.Sprintf("As a %s, you naturally move through life as %s. You're wired to %s", code, name, wiredTo),
		fmt.Sprintf("In work and projects, you tend to thrive when you're allowed to %s, and when the people around you respect your approach instead of trying to box you in.",
			strings.ToLower(firstOr(p.Strengths, "use your natural way of thinking and deciding"))),
		fmt.Sprintf("In relationships, you show up as someone who tends to %s. The people who fit you best are often types like %s. More challenging fits can be types like %s, especially when stress or big decisions are on the table.",
			relStyle, bestTypes, challenging),
		fmt.Sprintf("When stress hits and you're not at your best, your blind spots can start to run the show. You may notice more of %s. That's your cue to pause, reset, and come back on purpose instead of autopilot.",
			strings.ToLower(firstOr(p.Blindspots, "slip into habits that drain your energy instead of restoring it"))),
	}
	if len(p.IdealCareers) > 0 {
		story = append(story, fmt.Sprintf("Career-wise, you often feel most alive in roles like %s.", strings.Join(p.IdealCareers, ", ")))
	}

	coach := []string{
		fmt.Sprintf("Alignment check: Your best fits are %s. If your day-to-day life doesn't reflect that mix, you're going to feel it as low energy or quiet resentment.", bestTypes),
		fmt.Sprintf("Tricky dynamics: Pay attention when you're around %s types under stress. It's easy for both sides to slip into old patterns.", challenging),
		"Social upgrade: " + firstOr(p.CommunicationTips, "Practice saying what you actually feel or need instead of assuming people just know."),
	}
	if len(p.GrowthFocus) > 0 {
		coach = append(coach, "Growth focus: "+p.GrowthFocus[0])
	}
	if len(p.GrowthFocus) > 1 {
		coach = append(coach, "Next-level move: "+p.GrowthFocus[1])
	}

	return Narrative{Story: story, Coach: coach, Source: SourceTemplate}
}
