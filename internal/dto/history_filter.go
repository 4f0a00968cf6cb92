// HistoryFilter describes user-provided filters to narrow the measurement history.
package dto

import "time"

type HistoryFilter struct {
	Source      string
	DateAfter   time.Time
	DateBefore  time.Time
	MinDistance float64 // meters, 0 = no bound
	MaxDistance float64 // meters, 0 = no bound
	Limit       int
	Offset      int
}
