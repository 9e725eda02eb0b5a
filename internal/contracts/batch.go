package contracts

import "time"

// Entity is a scored subject (player, team) with its birth or founding data.
type Entity struct {
	ID         string        `json:"id"`
	ExternalID string        `json:"external_id,omitempty"`
	Name       string        `json:"name"`
	Birth      Moment        `json:"birth"`
	BirthPlace GeoCoordinate `json:"birth_place"`
}

// Phase is the batch pipeline state.
type Phase string

const (
	PhaseFetchingPopulation  Phase = "fetching-population"
	PhaseMatchingIdentifiers Phase = "matching-identifiers"
	PhaseComputing           Phase = "computing"
	PhasePersisting          Phase = "persisting"
	PhaseDone                Phase = "done"
	PhaseFailed              Phase = "failed"
)

// RunSummary is the outcome of one batch run, handed to logging/reporting.
// Updated + Skipped + Failed == Total once the run reaches PhaseDone.
type RunSummary struct {
	RunID      string        `json:"run_id"`
	Phase      Phase         `json:"phase"`
	AsOf       time.Time     `json:"as_of"`
	Total      int           `json:"total"`
	Updated    int           `json:"updated"`
	Skipped    int           `json:"skipped"`
	Failed     int           `json:"failed"`
	DryRun     bool          `json:"dry_run"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Duration   time.Duration `json:"duration"`
}

// Processed returns the number of entities that reached a terminal outcome.
func (s RunSummary) Processed() int {
	return s.Updated + s.Skipped + s.Failed
}
