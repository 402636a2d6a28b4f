// Package moderation screens user-written text for crisis language and
// content that needs a human look before it is shown to other students.
package moderation

import "strings"

type Action string

const (
	ActionApprove  Action = "approve"
	ActionReview   Action = "review"
	ActionEscalate Action = "escalate"
)

const (
	FlagCrisis     = "crisis_detected"
	FlagHarmful    = "harmful_content"
	FlagTooShort   = "too_short"
	FlagTooLong    = "too_long"
	FlagAggressive = "aggressive_tone"
)

const (
	minLength        = 10
	maxLength        = 2000
	maxExclamations  = 5
	baseConfidence   = 0.8
	crisisConfidence = 0.95
	reviewConfidence = 0.7
	upliftConfidence = 0.9
)

var crisisKeywords = []string{
	"suicide", "kill myself", "end it all", "not worth living", "better off dead",
	"self harm", "cut myself", "hurt myself", "want to die", "end my life",
	"hopeless", "no point", "give up", "can't go on", "too much pain",
	"overdose", "pills", "jump off", "hang myself", "drown myself",
}

var harmfulKeywords = []string{
	"hate", "stupid", "worthless", "pathetic", "loser", "failure",
	"drugs", "alcohol", "substance", "illegal", "harmful substances",
}

var supportiveKeywords = []string{
	"help", "support", "understand", "care", "love", "hope", "better",
	"therapy", "counselor", "professional", "medication", "treatment",
}

type Result struct {
	Approved        bool     `json:"approved"`
	NeedsReview     bool     `json:"needs_review"`
	CrisisDetected  bool     `json:"crisis_detected"`
	Flags           []string `json:"flags"`
	SuggestedAction Action   `json:"suggested_action"`
	Confidence      float64  `json:"confidence"`
}

// Moderate classifies text. Crisis language wins over every other signal:
// such text is never approved and is escalated immediately.
func Moderate(text string) Result {
	lower := strings.ToLower(text)

	if containsAny(lower, crisisKeywords) {
		return Result{
			CrisisDetected:  true,
			Flags:           []string{FlagCrisis},
			SuggestedAction: ActionEscalate,
			Confidence:      crisisConfidence,
		}
	}

	res := Result{
		Flags:           []string{},
		SuggestedAction: ActionApprove,
		Confidence:      baseConfidence,
	}

	if containsAny(lower, harmfulKeywords) {
		res.Flags = append(res.Flags, FlagHarmful)
		res.NeedsReview = true
		res.Confidence = reviewConfidence
	}

	// длина считается в символах исходного текста
	n := len([]rune(text))
	if n < minLength {
		res.Flags = append(res.Flags, FlagTooShort)
		res.NeedsReview = true
	}
	if n > maxLength {
		res.Flags = append(res.Flags, FlagTooLong)
		res.NeedsReview = true
	}

	if strings.Count(text, "!") > maxExclamations || text == strings.ToUpper(text) {
		res.Flags = append(res.Flags, FlagAggressive)
		res.NeedsReview = true
	}

	switch {
	case res.NeedsReview:
		res.SuggestedAction = ActionReview
	case containsAny(lower, supportiveKeywords):
		res.Approved = true
		res.Confidence = upliftConfidence
	default:
		res.Approved = true
	}

	return res
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
