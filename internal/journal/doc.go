// Package journal records every step, poll and patch of a run as JSON
// lines, so that a run can be reconstructed after the process died, and
// stores finished journals in an S3-compatible bucket.
package journal
