package scoring

import "strings"

// ─── TYPE CODES ───────────────────────────────────────────────────────────────

// NormalizeType uppercases s and strips everything that is not A-Z, so
// "enfp ", "E-N-F-P" and "Enfp!" all become "ENFP".
func NormalizeType(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if r >= 'A' && r <= 'Z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidType reports whether s normalizes to one of the sixteen codes.
func ValidType(s string) bool {
	t := NormalizeType(s)
	if len(t) != len(Axes) {
		return false
	}
	for i, a := range Axes {
		if !a.Has(t[i : i+1]) {
			return false
		}
	}
	return true
}

// AllTypes lists the sixteen codes in a stable order.
func AllTypes() []string {
	out := make([]string, 0, 16)
	for _, e := range []string{"E", "I"} {
		for _, n := range []string{"N", "S"} {
			for _, t := range []string{"T", "F"} {
				for _, j := range []string{"J", "P"} {
					out = append(out, e+n+t+j)
				}
			}
		}
	}
	return out
}

// ─── COMPATIBILITY ────────────────────────────────────────────────────────────

const (
	compatBase = 50
	compatMin  = 15
	compatMax  = 95
)

// compatWeights holds the {same, different} adjustment per axis slot.
var compatWeights = [4][2]int{
	{8, -4},  // E/I: different can be magnetic but tiring
	{10, -6}, // S/N: world-view alignment
	{8, -8},  // T/F: decision-making
	{8, -5},  // J/P: lifestyle and structure
}

// CompatibilityScore rates two codes on a 15–95 scale. Either code being
// invalid yields the neutral 50.
func CompatibilityScore(a, b string) int {
	me, them := NormalizeType(a), NormalizeType(b)
	if !ValidType(me) || !ValidType(them) {
		return compatBase
	}
	score := compatBase
	for i, w := range compatWeights {
		if me[i] == them[i] {
			score += w[0]
		} else {
			score += w[1]
		}
	}
	return min(max(score, compatMin), compatMax)
}

// CompatibilityLabel buckets a score.
func CompatibilityLabel(score int) string {
	switch {
	case score >= 75:
		return "High Potential Match"
	case score >= 55:
		return "Good Fit With Friction Points"
	case score >= 40:
		return "Mixed Match — Depends on Communication"
	default:
		return "High Challenge Match"
	}
}

// Insights are the relationship notes for a pair of codes.
type Insights struct {
	Strengths  []string `json:"strengths"`
	Challenges []string `json:"challenges"`
}

type pairNote struct{ strength, challenge string }

// insightNotes per axis slot: [0] different letters, [1] both positive
// letter, [2] both negative letter.
var insightNotes = [4][3]pairNote{
	{
		{"One of you brings energy and momentum; the other brings calm and reflection.", "You won’t always recharge the same way — one may want to go out when the other is done for the day."},
		{"You both feed off interaction and shared experiences.", "You might both over-book life and forget to slow down or check in emotionally."},
		{"You both respect space, depth, and time to process before reacting.", "If nobody initiates, important conversations can get delayed or avoided."},
	},
	{
		{"One of you keeps track of real-world details; the other spots patterns and possibilities.", "You may clash over ‘proof vs potential’ — one wants receipts, the other wants vision."},
		{"You both like possibilities, patterns, and long-term thinking.", "You might both skip practical details until they become urgent."},
		{"You both prefer concrete facts, experiences, and what’s real right now.", "You may resist change until things are uncomfortable or obviously necessary."},
	},
	{
		{"One of you protects fairness and logic; the other protects people and values.", "Under stress, one can feel ‘cold’ and the other ‘too sensitive’ if you don’t name what you’re both trying to protect."},
		{"You both value logic and straightforward problem solving when things get intense.", "Feelings can get pushed aside until they blow up or show up as distance."},
		{"You both care about how decisions land on people, not just the outcome.", "Hard calls can be delayed because neither wants to be the ‘bad guy’."},
	},
	{
		{"One of you brings structure and follow-through; the other brings flexibility and last-minute adaptability.", "You won’t agree on what ‘on time’ or ‘planned’ means unless you spell it out."},
		{"You both like plans, clarity, and locking things in.", "You can both get rigid or controlling when things don’t go according to plan."},
		{"You both stay open to options and new opportunities.", "Important decisions can float because neither wants to commit too early."},
	},
}

// CompatibilityInsights returns one strength and one challenge per axis, or
// empty lists when either code is invalid.
func CompatibilityInsights(a, b string) Insights {
	out := Insights{Strengths: []string{}, Challenges: []string{}}
	me, them := NormalizeType(a), NormalizeType(b)
	if !ValidType(me) || !ValidType(them) {
		return out
	}
	for i, ax := range Axes {
		var n pairNote
		switch {
		case me[i] != them[i]:
			n = insightNotes[i][0]
		case me[i:i+1] == ax.PositiveLetter():
			n = insightNotes[i][1]
		default:
			n = insightNotes[i][2]
		}
		out.Strengths = append(out.Strengths, n.strength)
		out.Challenges = append(out.Challenges, n.challenge)
	}
	return out
}

// Match is the full compatibility answer for a pair.
type Match struct {
	You      string   `json:"you"`
	Them     string   `json:"them"`
	Score    int      `json:"score"`
	Label    string   `json:"label"`
	Insights Insights `json:"insights"`
}

// Compare bundles score, label and insights for two codes.
func Compare(a, b string) Match {
	score := CompatibilityScore(a, b)
	return Match{
		You:      NormalizeType(a),
		Them:     NormalizeType(b),
		Score:    score,
		Label:    CompatibilityLabel(score),
		Insights: CompatibilityInsights(a, b),
	}
}

// ─── LETTERS ──────────────────────────────────────────────────────────────────

// Letter explains one letter of a type code in plain language.
type Letter struct {
	Title   string `json:"title"`
	Line    string `json:"line"`
	Example string `json:"example"`
}

var letterInfo = map[string]Letter{
	"I": {"I — Introvert", "You recharge by pulling back, not by being around a crowd all the time.", "Example: After a long day, you’d rather have a quiet reset than be the life of the party."},
	"E": {"E — Extravert", "You get energy from interaction, movement, and being around people.", "Example: A good night out or a live environment can wake you up more than a nap."},
	"N": {"N — Intuition", "You pay attention to patterns, possibilities, and what something could turn into.", "Example: You’re drawn to ideas, concepts, and ‘what if’ conversations more than pure facts."},
	"S": {"S — Sensing", "You focus on details, facts, and what’s real right in front of you.", "Example: You like concrete examples and receipts, not just theories or vibes."},
	"T": {"T — Thinking", "You lean on logic, fairness, and what makes sense even when feelings are loud.", "Example: In decisions, you ask ‘What’s the smartest move?’ before ‘How will everyone feel?’"},
	"F": {"F — Feeling", "You factor in values, impact, and people when you decide what to do.", "Example: You’d rather keep things real but respectful than ‘win’ and leave damage behind."},
	"J": {"J — Judging", "You like plans, decisions, and knowing where things are going.", "Example: You’d rather lock something in and adjust later than float with no structure."},
	"P": {"P — Perceiving", "You like options, flexibility, and keeping things open until they feel right.", "Example: You’re comfortable pivoting last-minute if something better shows up."},
}

// LetterInfo looks up a single letter.
func LetterInfo(letter string) (Letter, bool) {
	l, ok := letterInfo[strings.ToUpper(letter)]
	return l, ok
}

// Letters explains each letter of a valid code, in order.
func Letters(code string) []Letter {
	t := NormalizeType(code)
	if !ValidType(t) {
		return nil
	}
	out := make([]Letter, 0, len(t))
	for i := range t {
		l, _ := LetterInfo(t[i : i+1])
		out = append(out, l)
	}
	return out
}
