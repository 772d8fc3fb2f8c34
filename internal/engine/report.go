package engine

import "github.com/pterm/pterm"

// ApplyReport totals the outcome of one apply run. Every unit of work lands
// in exactly one bucket.
type ApplyReport struct {
	// PoliciesConverged counts (account, policy) pairs created or updated.
	PoliciesConverged int
	// Attached counts successful policy-to-principal attachments,
	// custom and managed.
	Attached int
	// TemporaryGranted counts installed inline temporary policies.
	TemporaryGranted int
	// SkippedExpired counts temporary grants already past expiry at apply
	// time.
	SkippedExpired int
	// Skipped counts units dropped for unresolved references, empty
	// definitions, or malformed values.
	Skipped int
	// Failed counts units lost to provider errors.
	Failed int
}

// CleanupReport summarizes one cleanup pass over the temporary-grant list.
type CleanupReport struct {
	// Expired counts grants past expiry whose removal was attempted.
	Expired int
	// Active counts grants still inside their expiration window.
	Active int
	// Failed counts expired grants whose removal did not succeed.
	Failed int
}

// attempt runs one unit of work and absorbs its failure: the error is
// logged with the unit's context and the caller moves on to the next unit.
// This is the single failure-isolation mechanism for every phase.
func (e *Engine) attempt(unit string, args []pterm.LoggerArgument, fn func() error) bool {
	if err := fn(); err != nil {
		e.logger.Error(unit+" failed", append(args, e.logger.Args("error", err.Error())...))
		return false
	}
	return true
}
