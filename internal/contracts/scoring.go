package contracts

import (
	"math"
	"time"
)

// StatisticRecord carries one entity's performance features from a statistics source.
// A nil feature is absent and contributes nothing to a score.
type StatisticRecord struct {
	ExternalID string              `json:"external_id"`
	Name       string              `json:"name"`
	Source     string              `json:"source"`
	Features   map[string]*float64 `json:"features"`
}

// Feature returns the value of a feature and whether it is usable (present and finite).
func (r StatisticRecord) Feature(name string) (float64, bool) {
	if r.Features == nil {
		return 0, false
	}
	v, ok := r.Features[name]
	if !ok || v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0, false
	}
	return *v, true
}

// Set stores a feature value.
func (r *StatisticRecord) Set(name string, value float64) {
	if r.Features == nil {
		r.Features = make(map[string]*float64)
	}
	v := value
	r.Features[name] = &v
}

// ScoreRecord is the persisted influence score for one entity.
// Each recomputation supersedes the previous record.
// ⭐ SSOT: 점수 저장 레코드는 이 타입으로만
type ScoreRecord struct {
	EntityID        string    `json:"entity_id"`
	RawScore        float64   `json:"raw_score"`
	NormalizedScore float64   `json:"influence_score"`
	Profile         string    `json:"profile"`
	ComputedAt      time.Time `json:"influence_updated_at"`
}
