// Package result turns the per-rule results of one validation request into a
// single decision.
//
// Failed results are split into errors and warnings by severity: warning and
// low never block a change, everything else does. Rules that crashed are kept
// as warnings in the "system" category so they are never silently dropped.
//
// Auto-fixes run only when there are no errors. Eligible fixes are applied
// least severe first, each one receiving the previous fix's output.
//
// The processor also renders a plain-text report and keeps bounded analytics
// of recent requests.
package result
