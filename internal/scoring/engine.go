package scoring

// Result is everything derived from one submission.
type Result struct {
	TraitVector TraitVector `json:"trait_vector"`
	TypeCode    string      `json:"type_code"`
	Profile     Profile     `json:"profile"`
}

// Engine scores submissions against a fixed question bank and profile table.
// It holds no mutable state, so one Engine is shared by every request.
type Engine struct {
	bank     *Bank
	profiles ProfileTable
}

// NewEngine copies the profile table so later edits by the caller cannot leak
// into results.
func NewEngine(bank *Bank, profiles ProfileTable) *Engine {
	cp := make(ProfileTable, len(profiles))
	for code, entry := range profiles {
		cp[code] = entry
	}
	if bank == nil {
		bank = NewBank(nil)
	}
	return &Engine{bank: bank, profiles: cp}
}

// Bank exposes the question lookup the engine scores against.
func (e *Engine) Bank() *Bank { return e.bank }

// Score is a pure function of answers and the engine's tables. Malformed
// answers (unknown ids, non-numeric values) are skipped rather than reported
// so a partial submission still produces a best-effort result. Answer order
// does not matter.
func (e *Engine) Score(answers []Answer) Result {
	vec := e.Vector(answers)
	code := vec.TypeCode()
	return Result{
		TraitVector: vec,
		TypeCode:    code,
		Profile:     e.Profile(code, vec),
	}
}

// Vector accumulates the signed per-axis deltas.
func (e *Engine) Vector(answers []Answer) TraitVector {
	var vec TraitVector
	for _, ans := range answers {
		q, ok := e.bank.Lookup(ans.QuestionID)
		if !ok || !ans.Value.Valid() {
			continue
		}
		vec.add(q.Dimension, q.sign()*delta(ans.Value))
	}
	return vec
}

// Profile merges the table entry for code over the fallback and appends the
// threshold extras for vec. Unknown codes get the fallback content.
func (e *Engine) Profile(code string, vec TraitVector) Profile {
	var p Profile
	if entry, ok := e.profiles[code]; ok {
		p = entry.merge()
	} else {
		p = fallbackProfile()
	}
	p.Type = code
	p.RawTraitScores = vec
	appendExtras(&p, vec)
	return p
}

// HasProfile reports whether the table carries content for code.
func (e *Engine) HasProfile(code string) bool {
	_, ok := e.profiles[code]
	return ok
}
