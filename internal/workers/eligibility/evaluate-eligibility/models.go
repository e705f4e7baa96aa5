package evaluateeligibility

type Input struct {
	ApplicantID string `json:"applicantId"`
	ProductID   string `json:"productId"`
}

type Output struct {
	ApplicantID string  `json:"applicantId"`
	ProductID   string  `json:"productId"`
	Eligible    bool    `json:"eligible"`
	Confidence  float64 `json:"confidence"`
	Reason      string  `json:"reason"`
	MatchScore  float64 `json:"matchScore"`
	MatchID     int64   `json:"matchId"`
	SoftFailure bool    `json:"softFailure"`
	ParseStage  string  `json:"parseStage"`
}
