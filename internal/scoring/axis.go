// Package scoring turns questionnaire answers into a four-axis trait vector,
// a type code and a merged personality profile.
//
// This package is intentionally dependency-free (no DB, no HTTP, no logging)
// so that every function can be unit-tested with plain Go values and reused
// by the HTTP handlers, the gRPC service, the PDF renderer and the CLI.
package scoring

import "fmt"

// ─── AXES ─────────────────────────────────────────────────────────────────────

// Axis is one of the four binary preference dimensions.
type Axis string

const (
	AxisEI Axis = "EI" // + = E, - = I
	AxisSN Axis = "SN" // + = N, - = S
	AxisTF Axis = "TF" // + = T, - = F
	AxisJP Axis = "JP" // + = J, - = P
)

// Axes is the fixed axis order. Type codes, flexibility tie-breaks and every
// rendered breakdown follow it.
var Axes = [4]Axis{AxisEI, AxisSN, AxisTF, AxisJP}

// Valid reports whether a is one of the four known axes.
func (a Axis) Valid() bool {
	switch a {
	case AxisEI, AxisSN, AxisTF, AxisJP:
		return true
	}
	return false
}

// PositiveLetter is the letter a non-negative axis value maps to.
// SN is the odd one out: N is positive even though S sorts first.
func (a Axis) PositiveLetter() string {
	switch a {
	case AxisEI:
		return "E"
	case AxisSN:
		return "N"
	case AxisTF:
		return "T"
	case AxisJP:
		return "J"
	}
	return ""
}

// NegativeLetter is the letter a negative axis value maps to.
func (a Axis) NegativeLetter() string {
	switch a {
	case AxisEI:
		return "I"
	case AxisSN:
		return "S"
	case AxisTF:
		return "F"
	case AxisJP:
		return "P"
	}
	return ""
}

// Has reports whether letter belongs to this axis.
func (a Axis) Has(letter string) bool {
	return letter != "" && (letter == a.PositiveLetter() || letter == a.NegativeLetter())
}

// ParseAxis accepts the two-letter axis code.
func ParseAxis(s string) (Axis, error) {
	a := Axis(s)
	if !a.Valid() {
		return "", fmt.Errorf("unknown axis %q: want one of EI, SN, TF, JP", s)
	}
	return a, nil
}

// ─── TRAIT VECTOR ─────────────────────────────────────────────────────────────

// TraitVector holds one signed accumulator per axis. Zero means balanced.
// There is no fixed bound; in practice each axis stays within ±2 per
// question on that axis.
type TraitVector struct {
	EI int `json:"EI"`
	SN int `json:"SN"`
	TF int `json:"TF"`
	JP int `json:"JP"`
}

// Get returns the value for axis a, or 0 for an unknown axis.
func (v TraitVector) Get(a Axis) int {
	switch a {
	case AxisEI:
		return v.EI
	case AxisSN:
		return v.SN
	case AxisTF:
		return v.TF
	case AxisJP:
		return v.JP
	}
	return 0
}

// add accumulates delta into axis a. Unknown axes are ignored.
func (v *TraitVector) add(a Axis, delta int) {
	switch a {
	case AxisEI:
		v.EI += delta
	case AxisSN:
		v.SN += delta
	case AxisTF:
		v.TF += delta
	case AxisJP:
		v.JP += delta
	}
}

// TypeCode derives the four-letter code. A value of exactly zero resolves
// to the positive letter, so an all-neutral submission is always "ENTJ".
func (v TraitVector) TypeCode() string {
	code := make([]byte, 0, 4)
	for _, a := range Axes {
		if v.Get(a) >= 0 {
			code = append(code, a.PositiveLetter()...)
		} else {
			code = append(code, a.NegativeLetter()...)
		}
	}
	return string(code)
}
