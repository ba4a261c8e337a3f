package sentinel

import "errors"

// Store-level facts. Stores return these (optionally wrapped) and services
// translate them into domain errors; they never describe input validation.
//   - ErrNotFound: the row or key does not exist
//   - ErrExpired: the session or record is past its expiry
//   - ErrSuperseded: the record was replaced by a newer version
//   - ErrUnavailable: the backing store could not be reached
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrExpired     = errors.New("expired")
	ErrSuperseded  = errors.New("superseded")
	ErrUnavailable = errors.New("unavailable")
)
