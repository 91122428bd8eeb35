// Package pipeline runs an ordered list of named steps and stops at the
// first required step that fails.
//
// Steps execute strictly in declared order because later steps depend on
// files and registrations produced by earlier ones. Nothing is rolled back
// on failure: steps are written to be re-runnable and the operator re-runs
// the pipeline. Every step start and outcome is logged and passed to
// [Observer] hooks so a run can be reconstructed after a crash.
package pipeline
