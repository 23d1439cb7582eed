package monitor

import (
	"fmt"
	"time"
)

// Result tracks the outcome of one run. It is for observability only.
type Result struct {
	Date               string
	TeamID             int
	GamesExamined      int
	GamesQualifying    int
	DataQualityIssues  int
	GoalsDetected      int
	AlreadyNotified    int
	NotificationsSent  int
	NotifyFailures     int
	LedgerLookupErrors int
	LedgerWriteErrors  int
	ConcurrentRecords  int
	FetchErrors        int
	Duration           time.Duration
}

// Summary returns a human-readable summary.
func (r *Result) Summary() string {
	return fmt.Sprintf(
		"date=%s team=%d games=%d qualifying=%d data_quality=%d goals=%d already=%d sent=%d notify_failed=%d concurrent=%d fetch_errors=%d ledger_lookup=%d ledger_write=%d dur=%s",
		r.Date, r.TeamID, r.GamesExamined, r.GamesQualifying, r.DataQualityIssues,
		r.GoalsDetected, r.AlreadyNotified, r.NotificationsSent, r.NotifyFailures,
		r.ConcurrentRecords, r.FetchErrors, r.LedgerLookupErrors, r.LedgerWriteErrors,
		r.Duration.Round(time.Millisecond))
}
