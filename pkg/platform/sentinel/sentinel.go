package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrAlreadyUsed: a uniqueness slot (name, email, cpf) is taken
// - ErrInvalidState: entity in wrong state for requested operation
// - ErrLimitExceeded: a per-owner row cap is already full
//
// For validation errors (bad input, missing fields), use pkg/domain-errors
// directly.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyUsed   = errors.New("already used")
	ErrInvalidState  = errors.New("invalid state")
	ErrLimitExceeded = errors.New("limit exceeded")
)
