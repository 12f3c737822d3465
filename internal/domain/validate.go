package domain

import (
	"regexp"
	"strconv"
	"time"
	"unicode/utf8"
)

const (
	// Operational delivery window, inclusive, in minutes since midnight.
	EarliestDeliveryMinutes = 6 * 60
	LatestDeliveryMinutes   = 20*60 + 30

	MaxNoteLength = 500
)

var (
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timePattern = regexp.MustCompile(`^(\d{2}):(\d{2})$`)
)

// ValidateSubmission checks a raw submission against format and business
// rules and returns the report to persist. Checks run in a fixed order and
// the first failure is returned as a *ValidationError.
//
// now is the submission instant; "today" is its UK civil date.
func ValidateSubmission(sub ReportSubmission, now time.Time) (DeliveryReport, error) {
	parts, ok := ParsePostcode(sub.Postcode)
	if !ok {
		return DeliveryReport{}, newValidationError(CodeInvalidPostcode, "Enter a valid UK postcode")
	}

	if !datePattern.MatchString(sub.DeliveryDate) {
		return DeliveryReport{}, newValidationError(CodeBadDateFormat, "Delivery date must use the YYYY-MM-DD format")
	}
	// time.Parse rejects out-of-range days such as 2025-04-31.
	date, err := time.Parse(DateLayout, sub.DeliveryDate)
	if err != nil {
		return DeliveryReport{}, newValidationError(CodeDateNotRecognised, "Delivery date not recognised")
	}

	minutes, ok := parseClockTime(sub.DeliveryTime)
	if !ok {
		return DeliveryReport{}, newValidationError(CodeBadTimeFormat, "Delivery time must use the 24-hour HH:MM format")
	}

	if minutes < EarliestDeliveryMinutes || minutes > LatestDeliveryMinutes {
		return DeliveryReport{}, newValidationError(
			CodeOutsideOperationalHours,
			"Delivery time must be between 06:00 and 20:30",
		)
	}

	if date.After(UKDate(now)) {
		return DeliveryReport{}, newValidationError(CodeFutureDate, "Delivery date cannot be in the future")
	}

	// Unknown types fall back to letters before the Sunday rule so a stored
	// report is never a Sunday letters delivery.
	// TODO: confirm with product whether unknown types should be rejected instead.
	deliveryType, known := ParseDeliveryType(sub.DeliveryType)
	if !known {
		deliveryType = DeliveryLetters
	}
	if deliveryType == DeliveryLetters && date.Weekday() == time.Sunday {
		return DeliveryReport{}, newValidationError(CodeSundayLetters, "Letters are not delivered on Sundays")
	}

	return DeliveryReport{
		Postcode:             parts.Normalised,
		OutwardSector:        parts.OutwardSector,
		DeliveryDate:         date.Format(DateLayout),
		MinutesSinceMidnight: minutes,
		DeliveryType:         deliveryType,
		Note:                 truncateNote(sub.Note),
	}, nil
}

// parseClockTime converts "HH:MM" into minutes since midnight.
func parseClockTime(s string) (int, bool) {
	m := timePattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}

	hours, _ := strconv.Atoi(m[1])
	mins, _ := strconv.Atoi(m[2])
	if hours > 23 || mins > 59 {
		return 0, false
	}

	return hours*60 + mins, true
}

func truncateNote(note *string) *string {
	if note == nil || *note == "" {
		return nil
	}

	n := *note
	if utf8.RuneCountInString(n) > MaxNoteLength {
		n = string([]rune(n)[:MaxNoteLength])
	}
	return &n
}
