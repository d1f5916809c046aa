package service

import "errors"

// Sentinel errors shared by all services. Handlers map them to transport
// statuses; services never translate them further.
var (
	// ErrNotFound means the referenced entity does not exist. It is always
	// resolved before any permission evaluation so a missing entity is never
	// reported as a denial.
	ErrNotFound = errors.New("not found")

	// ErrForbidden means the entity exists but the actor's role or
	// membership does not satisfy the operation's rule.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict means a domain invariant was violated after permission was
	// granted, e.g. a duplicate membership or version label.
	ErrConflict = errors.New("conflict")

	// ErrAuditFailed means the mutation succeeded but the audit write did
	// not. The mutation is never rolled back; callers decide whether to
	// surface a degraded success.
	ErrAuditFailed = errors.New("audit write failed")
)
