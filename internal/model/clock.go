package model

import "time"

// reportingZone is the fixed ledger timezone (UTC+8). Accrual days and
// display times are computed against this clock regardless of where the
// process runs.
var reportingZone = time.FixedZone("UTC+8", 8*60*60)

// ReportingLocation returns the fixed reporting timezone.
func ReportingLocation() *time.Location {
	return reportingZone
}

// Today returns the current calendar date in the reporting timezone.
func Today() string {
	return time.Now().In(reportingZone).Format(DateLayout)
}

// NowDisplay returns the current wall-clock time in the reporting timezone,
// formatted for the display-only time column.
func NowDisplay() string {
	return time.Now().In(reportingZone).Format(TimeLayout)
}
