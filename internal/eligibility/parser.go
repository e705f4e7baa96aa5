package eligibility

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"loan-eligibility-workers/internal/models"
)

var (
	eligibleRe   = regexp.MustCompile(`(?i)"eligible"\s*:\s*(true|false)`)
	confidenceRe = regexp.MustCompile(`(?i)"confidence"\s*:\s*(\d+)`)
	reasonRe     = regexp.MustCompile(`(?i)"reason"\s*:\s*"([^"]+)"`)
)

// ParseVerdict converts a raw provider reply into a verdict. It tries strict
// JSON first and falls back to pattern extraction; it never fails. The
// returned verdict's ParseStage tells the caller which path produced it.
func ParseVerdict(raw string) models.Verdict {
	if v, ok := parseStrict(raw); ok {
		return v
	}
	return parseTolerant(raw)
}

func parseStrict(raw string) (models.Verdict, bool) {
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &obj); err != nil || obj == nil {
		return models.Verdict{}, false
	}

	return models.Verdict{
		Eligible:   asBool(obj["eligible"]),
		Confidence: models.ClampConfidence(asFloat(obj["confidence"])),
		Reason:     asReason(obj["reason"]),
		ParseStage: models.ParseStrict,
	}, true
}

func parseTolerant(raw string) models.Verdict {
	v := models.Verdict{Reason: models.DefaultReason, ParseStage: models.ParseDefault}

	if m := eligibleRe.FindStringSubmatch(raw); m != nil {
		v.Eligible = strings.EqualFold(m[1], "true")
		v.ParseStage = models.ParseTolerant
	}
	if m := confidenceRe.FindStringSubmatch(raw); m != nil {
		if c, err := strconv.ParseFloat(m[1], 64); err == nil {
			v.Confidence = models.ClampConfidence(c)
		}
		v.ParseStage = models.ParseTolerant
	}
	if m := reasonRe.FindStringSubmatch(raw); m != nil {
		v.Reason = m[1]
		v.ParseStage = models.ParseTolerant
	}
	return v
}

func asBool(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(t))
		return b
	default:
		return false
	}
}

func asFloat(v interface{}) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(t, "%")), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func asReason(v interface{}) string {
	if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
		return s
	}
	return models.DefaultReason
}
