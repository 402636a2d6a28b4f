package model

import "time"

type ScreeningType string

const (
	ScreeningPHQ9 ScreeningType = "phq9"
	ScreeningGAD7 ScreeningType = "gad7"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// ItemCount returns the number of questions in the questionnaire, 0 for unknown types.
func (t ScreeningType) ItemCount() int {
	switch t {
	case ScreeningPHQ9:
		return 9
	case ScreeningGAD7:
		return 7
	}
	return 0
}

type ScreeningResult struct {
	ID         int64         `json:"id"`
	UserID     int64         `json:"user_id"`
	Type       ScreeningType `json:"screening_type"`
	Responses  []int         `json:"responses"`
	TotalScore int           `json:"total_score"`
	MaxScore   int           `json:"max_score"`
	RiskLevel  RiskLevel     `json:"risk_level"`
	CrisisFlag bool          `json:"crisis_flag"`
	CreatedAt  time.Time     `json:"created_at"`
}
