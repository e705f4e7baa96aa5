package store

import (
	"errors"

	apperrors "loan-eligibility-workers/internal/common/errors"
)

// Classify maps a store error to the job error taxonomy. Errors that did not
// come from the store become INTERNAL_ERROR.
func Classify(err error, applicantID, productID string) *apperrors.StandardError {
	switch {
	case errors.Is(err, ErrApplicantNotFound):
		return apperrors.NewApplicantNotFoundError(applicantID)
	case errors.Is(err, ErrProductNotFound):
		return apperrors.NewProductNotFoundError(productID)
	case errors.Is(err, ErrStore):
		return apperrors.NewStoreError(operation(err), err)
	default:
		return apperrors.Normalize(err)
	}
}

func operation(err error) string {
	var opErr *OpError
	if errors.As(err, &opErr) {
		return opErr.Op
	}
	return "unknown"
}
