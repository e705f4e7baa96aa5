package evaluatebatcheligibility

import "loan-eligibility-workers/internal/eligibility"

type Input struct {
	BatchID string `json:"batchId"`
}

type Output struct {
	BatchID        string                  `json:"batchId"`
	RunID          string                  `json:"runId"`
	PairsEvaluated int                     `json:"pairsEvaluated"`
	PairsSkipped   int                     `json:"pairsSkipped"`
	SoftFailures   int                     `json:"softFailures"`
	Results        []eligibility.BatchPair `json:"results"`
}
