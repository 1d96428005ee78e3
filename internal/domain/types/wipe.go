package types

// WipeResult reports the outcome of a PanicWipe run. Success is true iff
// Errors is empty; PanicWipe continues past individual step failures and
// accumulates them here rather than aborting.
type WipeResult struct {
	Success      bool     `json:"success"`
	DeletedItems []string `json:"deleted_items"`
	Errors       []string `json:"errors"`
	DurationMS   int64    `json:"duration_ms"`
}
