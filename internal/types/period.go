package types

import (
	"fmt"
	"time"
)

// Period is the calendar month containing a reference date. It is the
// unit of batch processing.
type Period struct {
	Year  int
	Month time.Month
}

// PeriodFromDate resolves the period containing d.
func PeriodFromDate(d time.Time) Period {
	return Period{Year: d.Year(), Month: d.Month()}
}

// Validate rejects periods outside the plausible reporting window.
func (p Period) Validate() error {
	if p.Year < 2020 || p.Year > 2100 {
		return fmt.Errorf("invalid year: %d", p.Year)
	}
	if p.Month < time.January || p.Month > time.December {
		return fmt.Errorf("invalid month: %d", p.Month)
	}
	return nil
}

// DateRange returns the first and last day of the period, midnight UTC.
func (p Period) DateRange() (time.Time, time.Time) {
	start := time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	return start, end
}

// Days returns the number of calendar days in the period.
func (p Period) Days() int {
	_, end := p.DateRange()
	return end.Day()
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}
