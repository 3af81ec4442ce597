package servicelog

// ValidationFailure rejects a submission and carries the full aggregated
// result so the caller can surface every violation at once.
type ValidationFailure struct {
	Result ValidationResult
}

func (e *ValidationFailure) Error() string { return "submission failed validation" }

// PersistenceFailure wraps a storage error raised while committing a
// submission. The transaction is rolled back, so nothing partial is stored.
type PersistenceFailure struct {
	Err error
}

func (e *PersistenceFailure) Error() string { return "service log not stored: " + e.Err.Error() }

func (e *PersistenceFailure) Unwrap() error { return e.Err }
