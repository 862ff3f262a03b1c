package hermes

import "time"

const (
	SubjectRegistryUpdated = "ensemble.registry.updated"

	StreamName   = "DEMOCRACY_EVENTS"
	StreamMaxAge = 30 * 24 * time.Hour
)

// StreamSubjects are the wildcards the event stream captures.
var StreamSubjects = []string{"ensemble.weights.>", "ensemble.registry.>"}

func SubjectWeightsComputed(runID string) string { return weightsSubject(runID, "computed") }

func SubjectWeightsUnresolved(runID string) string { return weightsSubject(runID, "unresolved") }

func weightsSubject(runID, event string) string {
	return "ensemble.weights." + runID + "." + event
}
