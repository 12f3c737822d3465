package domain

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

// DateLayout is the ISO calendar date format used for delivery dates.
const DateLayout = "2006-01-02"

var ukLocation = mustLoadLocation("Europe/London")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(fmt.Sprintf("load location %q: %v", name, err))
	}
	return loc
}

// UKLocation returns the civil time zone reports are dated in.
func UKLocation() *time.Location { return ukLocation }

// UKDate returns the UK civil date of t as midnight UTC.
// Converting the instant first avoids an off-by-one around midnight
// during British Summer Time.
func UKDate(t time.Time) time.Time {
	y, m, d := t.In(ukLocation).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// UKDaysAgo returns the ISO date n days before the UK civil date of now.
func UKDaysAgo(now time.Time, n int) string {
	return UKDate(now).AddDate(0, 0, -n).Format(DateLayout)
}
