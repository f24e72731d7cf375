package model

// SweepError is a non-fatal per-order failure collected during a sweep.
type SweepError struct {
	OrderID string `json:"order_id"`
	Err     string `json:"error"`
}

// SweepReport aggregates one pass over all pending orders. Queued market
// orders skipped because the market is closed are not counted as processed.
type SweepReport struct {
	Processed int          `json:"processed"`
	Executed  int          `json:"executed"`
	Expired   int          `json:"expired"`
	Cancelled int          `json:"cancelled"`
	Errors    []SweepError `json:"errors,omitempty"`
}

type CleanupReport struct {
	Expired   int          `json:"expired"`
	Cancelled int          `json:"cancelled"`
	Errors    []SweepError `json:"errors,omitempty"`
}
