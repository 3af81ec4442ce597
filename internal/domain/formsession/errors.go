package formsession

// ResolutionFailure reports that the field resolver was unavailable while
// binding a form. The binder degrades to an empty field set instead of
// failing the session.
type ResolutionFailure struct {
	Err error
}

func (e *ResolutionFailure) Error() string {
	return "custom fields unavailable, form bound without them: " + e.Err.Error()
}

func (e *ResolutionFailure) Unwrap() error { return e.Err }

// SnapshotCorrupt reports a draft payload that could not be decoded. The
// snapshot is discarded and deleted; restore proceeds as if no draft existed.
type SnapshotCorrupt struct {
	Err error
}

func (e *SnapshotCorrupt) Error() string { return "draft snapshot unreadable: " + e.Err.Error() }

func (e *SnapshotCorrupt) Unwrap() error { return e.Err }
