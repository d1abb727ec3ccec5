/*
Package triage coordinates a photo triage session.

A Controller owns the record set for one folder. Scans feed it batches of
paths, the analysis pool feeds it scores, and the curator's decisions go
through it into the undo journal and the persistence store.

# Ownership

All session state lives on one goroutine. Public methods send a command
to that goroutine and wait for it; scan batches and analysis results are
posted the same way by the goroutines producing them. Each message from
a scan or analysis run carries the session generation it was started
under, and a reset bumps the generation, so late events from a cancelled
session are discarded rather than merged.

# Manual lock

Any curator decision, and any decision restored from the store, marks a
record manual. Automated verdicts still update the score of a manual
record but never its status, rating or color. Re-analysis skips manual
records and is refused with ErrManualConfirmationRequired until the
caller confirms.

# Refusals

Invalid options and commands are rejected before anything changes with a
*RefusalError, which unwraps to ErrInvalidOption, ErrBusy or
ErrManualConfirmationRequired.
*/
package triage
