// internal/models/verdict.go
package models

import "math"

// ParseStage records which parser stage produced a verdict.
type ParseStage string

const (
	ParseStrict   ParseStage = "strict"
	ParseTolerant ParseStage = "tolerant"
	ParseDefault  ParseStage = "default"
	// ParseNone marks verdicts that never went through the parser: soft
	// failures and rule-based pre-screen approvals.
	ParseNone ParseStage = "none"
)

// DefaultReason is used when a provider reply carries no reason.
const DefaultReason = "No reason provided"

// Verdict is the outcome of one evaluation.
type Verdict struct {
	Eligible    bool       `json:"eligible"`
	Confidence  float64    `json:"confidence"`
	Reason      string     `json:"reason"`
	SoftFailure bool       `json:"softFailure"`
	ParseStage  ParseStage `json:"parseStage"`
}

// MatchScore ranks a verdict: confidence for approvals, half of it otherwise.
func MatchScore(eligible bool, confidence float64) float64 {
	confidence = ClampConfidence(confidence)
	if eligible {
		return confidence
	}
	return confidence * 0.5
}

// MatchScore is MatchScore(v.Eligible, v.Confidence).
func (v Verdict) MatchScore() float64 {
	return MatchScore(v.Eligible, v.Confidence)
}

// ClampConfidence bounds c to [0,100]; NaN and infinities become 0.
func ClampConfidence(c float64) float64 {
	switch {
	case math.IsNaN(c) || math.IsInf(c, 0):
		return 0
	case c < 0:
		return 0
	case c > 100:
		return 100
	default:
		return c
	}
}
