package sendmatchnotifications

import "loan-eligibility-workers/internal/notification"

type Input struct {
	ApplicantID string `json:"applicantId,omitempty"`
	BatchID     string `json:"batchId,omitempty"`
}

type Output struct {
	ApplicantsProcessed int                    `json:"applicantsProcessed"`
	Sent                int                    `json:"sent"`
	Skipped             int                    `json:"skipped"`
	Failed              int                    `json:"failed"`
	Results             []notification.Outcome `json:"results"`
}
