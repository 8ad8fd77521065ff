package metrics

import "errors"

// Sentinel errors returned by registration and observation paths.
//
// Schema errors are programming mistakes and should surface at startup or
// in tests. Cardinality drops are a runtime guard: the observation is lost
// but the caller's primary action is never failed because of it.
var (
	// ErrLabelSchemaMismatch reports an observation whose label keys do not
	// match the metric's declared label names exactly.
	ErrLabelSchemaMismatch = errors.New("metrics: label schema mismatch")

	// ErrSchemaConflict reports a re-registration under the same name with a
	// different kind, label schema, or bucket layout.
	ErrSchemaConflict = errors.New("metrics: schema conflict")

	// ErrCardinalityLimitExceeded reports a new label tuple rejected by the
	// per-metric series ceiling.
	ErrCardinalityLimitExceeded = errors.New("metrics: cardinality limit exceeded")

	// ErrUnknownMetric reports an observation against a name that was never
	// registered.
	ErrUnknownMetric = errors.New("metrics: unknown metric")

	// ErrInvalidOperation reports a value a kind cannot accept, such as a
	// negative counter delta.
	ErrInvalidOperation = errors.New("metrics: invalid operation")
)
