// Package review holds the pure per-session study logic: the card sequencer,
// the per-card review state machine (Trace) and the session summary.
//
// A Trace owns nothing durable. Transitions return a successor value plus an
// Effect naming the ledger and mastery calls the caller must make; the
// service layer applies effects and the trace is thrown away when the session
// completes or is abandoned.
package review
