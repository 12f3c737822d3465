package domain

// ValidationCode identifies which submission rule was violated.
type ValidationCode string

const (
	CodeInvalidPostcode         ValidationCode = "invalid_postcode"
	CodeBadDateFormat           ValidationCode = "bad_date_format"
	CodeDateNotRecognised       ValidationCode = "date_not_recognised"
	CodeBadTimeFormat           ValidationCode = "bad_time_format"
	CodeOutsideOperationalHours ValidationCode = "outside_operational_hours"
	CodeFutureDate              ValidationCode = "future_date"
	CodeSundayLetters           ValidationCode = "sunday_letters"
)

// ValidationError is a user input fault. Its message is safe to show
// to the submitter verbatim.
type ValidationError struct {
	Code    ValidationCode
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func newValidationError(code ValidationCode, msg string) *ValidationError {
	return &ValidationError{Code: code, Message: msg}
}
