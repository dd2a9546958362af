package app

// Run tracks a CLI operation that may mutate the index or the remote.
// Runs are created in memory with ID=0. Only mutating commands persist them
// (giving them an auto-increment ID from the database).
type Run struct {
	ID         int64
	Operation  string
	Parameters string
	Status     string // "completed" or "failed"
}

// NewRun creates a new in-memory run record.
func NewRun(operation, parameters string) *Run {
	return &Run{
		Operation:  operation,
		Parameters: parameters,
		Status:     "completed",
	}
}

// Persisted returns true if this run has been saved to the database.
func (r *Run) Persisted() bool {
	return r.ID != 0
}
