// Package wizard runs the interactive demo-config.yaml questionnaire and
// writes the result.
package wizard
