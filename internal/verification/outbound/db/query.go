package db

const codeColumns = `id, verification_code, one_time_pass, address, address_kind,
	verification_data, attempts, validated, created_at`

// attempts and validated never move backwards, even when an older copy of
// the row is saved after a newer one.
const querySaveCode = `
INSERT INTO verification_codes (` + codeColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO UPDATE SET
	attempts = GREATEST(verification_codes.attempts, EXCLUDED.attempts),
	validated = verification_codes.validated OR EXCLUDED.validated
RETURNING ` + codeColumns

const queryDeleteCode = `DELETE FROM verification_codes WHERE id = $1`

const queryGetOneUnvalidatedByCode = `
SELECT ` + codeColumns + `
FROM verification_codes
WHERE verification_code = $1 AND validated = FALSE AND created_at >= $2
LIMIT 1`

const queryGetLastCodeForAddress = `
SELECT ` + codeColumns + `
FROM verification_codes
WHERE address = $1 AND created_at >= $2
ORDER BY created_at DESC, id DESC
LIMIT 1`

const queryCountCodesForAddress = `
SELECT COUNT(*) FROM verification_codes WHERE address = $1 AND created_at >= $2`

const queryDeleteCreatedBefore = `DELETE FROM verification_codes WHERE created_at < $1`
