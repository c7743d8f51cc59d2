// Package apperrors defines the error taxonomy shared across the trading agent.
//
// Every external call site and risk decision classifies its failure into one
// of these sentinels so callers can apply the right recovery semantics
// (retry-once-then-skip, abort-the-step, or silently-skip-and-log) without
// inspecting error strings.
package apperrors

import "errors"

var (
	// ErrTransient marks a retryable I/O failure (timeout, 5xx, DNS/connect).
	// Callers retry at most once with fixed backoff, then skip the unit of work.
	ErrTransient = errors.New("transient I/O error")

	// ErrAuth marks an authentication failure (signing error, 401).
	// Fatal for the authenticated call; the cycle step that required it aborts,
	// but the cycle itself continues.
	ErrAuth = errors.New("authentication error")

	// ErrData marks a missing field, unparsable value, or empty payload.
	// The affected unit is skipped; no signal is emitted from it.
	ErrData = errors.New("data error")

	// ErrRiskBlock marks a signal rejected by the risk gate (kill switch,
	// capital cap, daily cap, dedup, sanity gate). Never treated as a fault;
	// logged and skipped.
	ErrRiskBlock = errors.New("risk gate rejected signal")

	// ErrInvariant marks a violated programmer invariant (e.g. a close order
	// derived with the wrong action/side). Must never reach production; if it
	// does, the current cycle aborts rather than placing the order.
	ErrInvariant = errors.New("invariant violation")
)

// Wrap attaches one of the sentinels above to err via %w so that
// errors.Is(result, apperrors.ErrTransient) keeps working after wrapping.
func Wrap(kind error, msg string, err error) error {
	if err == nil {
		return nil
	}
	return &taxonomyError{kind: kind, msg: msg, cause: err}
}

type taxonomyError struct {
	kind  error
	msg   string
	cause error
}

func (e *taxonomyError) Error() string {
	if e.cause == nil {
		return e.msg
	}
	return e.msg + ": " + e.cause.Error()
}

func (e *taxonomyError) Unwrap() []error {
	return []error{e.kind, e.cause}
}
