package upload

// ValidationError rejects an entire upload request: missing or unknown key,
// too many items, or nothing usable submitted. Per-file problems are never
// ValidationErrors; they become failure lines in the aggregated result.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}
