package store

const applicantColumns = `u.user_id, u.email, u.monthly_income, u.credit_score, u.employment_status,
       u.age, u.debt_to_income_ratio, u.existing_loans, u.batch_id`

const productColumns = `product_id, provider_name, product_name, interest_rate, min_loan_amount,
       max_loan_amount, loan_term_months, min_credit_score, min_monthly_income, max_debt_to_income`

const (
	queryGetApplicant = `SELECT ` + applicantColumns + `
FROM users u
WHERE u.user_id = $1`

	queryBatchApplicants = `SELECT ` + applicantColumns + `
FROM users u
WHERE u.batch_id = $1
ORDER BY u.user_id`

	queryGetProduct = `SELECT ` + productColumns + `
FROM loan_products
WHERE product_id = $1`

	queryListProducts = `SELECT ` + productColumns + `
FROM loan_products
ORDER BY product_id`

	queryUpsertMatch = `INSERT INTO matches (user_id, product_id, ai_eligible, ai_confidence, ai_reason, ai_status, match_score, ai_evaluated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
ON CONFLICT (user_id, product_id) DO UPDATE SET
    ai_eligible = EXCLUDED.ai_eligible,
    ai_confidence = EXCLUDED.ai_confidence,
    ai_reason = EXCLUDED.ai_reason,
    ai_status = EXCLUDED.ai_status,
    match_score = EXCLUDED.match_score,
    ai_evaluated_at = EXCLUDED.ai_evaluated_at
RETURNING match_id, ai_evaluated_at, notified`

	queryPendingMatches = `SELECT m.match_id, m.user_id, m.product_id, m.match_score,
       lp.provider_name, lp.product_name, lp.interest_rate,
       lp.min_loan_amount, lp.max_loan_amount, lp.loan_term_months
FROM matches m
JOIN loan_products lp ON m.product_id = lp.product_id
WHERE m.user_id = $1 AND m.notified = FALSE
ORDER BY m.match_score DESC, m.match_id`

	queryMarkNotified = `UPDATE matches SET notified = TRUE
WHERE match_id = ANY($1) AND notified = FALSE`

	queryInsertNotification = `INSERT INTO notifications (notification_id, user_id, email_subject, email_body, status, message_id, match_ids, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
)
