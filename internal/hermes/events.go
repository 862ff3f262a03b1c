package hermes

import "time"

type WeightsComputedEvent struct {
	RunID      string    `json:"run_id"`
	Scheme     string    `json:"scheme"`
	Entries    int       `json:"entries"`
	Unresolved int       `json:"unresolved"`
	DurationMs float64   `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

type WeightsUnresolvedEvent struct {
	RunID string   `json:"run_id"`
	Names []string `json:"names"`
}

type RegistryUpdatedEvent struct {
	Models    int       `json:"models"`
	Active    int       `json:"active"`
	UpdatedBy string    `json:"updated_by,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
