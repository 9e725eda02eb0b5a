package scoring

import (
	"math"
	"time"

	"github.com/wonny/astrobet/internal/contracts"
	"github.com/wonny/astrobet/pkg/logger"
)

// Result is the full breakdown of one score computation
type Result struct {
	Raw        float64 `json:"raw"`        // weighted linear sum
	Normalized float64 `json:"normalized"` // clamp(raw, 0, 1)
	Adjusted   float64 `json:"adjusted"`   // normalized^power
	Bell       float64 `json:"bell"`
	Composite  float64 `json:"composite"`
	AstroIndex float64 `json:"astro_index"` // [-1,1]
	Activity   float64 `json:"activity"`
	Adjustment float64 `json:"adjustment"` // activity bonus/penalty applied
	Score      float64 `json:"score"`      // integer-valued, [0,100]
}

// Normalizer blends aspect signal and statistics into a bounded score.
// Pure: identical inputs always produce identical Results.
// ⭐ SSOT: 영향력 점수 공식은 여기서만
type Normalizer struct {
	logger  *logger.Logger
	profile *Profile
}

// NewNormalizer creates a normalizer. The profile must already be validated.
func NewNormalizer(log *logger.Logger, profile *Profile) *Normalizer {
	return &Normalizer{
		logger:  log,
		profile: profile,
	}
}

// Profile returns the weight table in use
func (n *Normalizer) Profile() *Profile {
	return n.profile
}

// Score never fails: absent, NaN or infinite features contribute zero.
func (n *Normalizer) Score(aspects []contracts.Aspect, stats contracts.StatisticRecord) Result {
	p := n.profile
	var r Result

	r.AstroIndex = n.AstroIndex(aspects)

	for _, f := range p.Features {
		var value float64
		if f.Name == p.Astro.Feature {
			value = r.AstroIndex
		} else if v, ok := stats.Feature(f.Name); ok {
			value = v
		}

		term := value / f.Scale * f.Weight
		if finite(term) {
			r.Raw += term
		}
	}

	r.Normalized = math.Max(0, math.Min(1, r.Raw))
	r.Adjusted = math.Pow(r.Normalized, p.Curve.Power)
	r.Bell = 0.5 * (1 + math.Erf((r.Normalized-p.Curve.BellCenter)/(p.Curve.BellSpread*math.Sqrt2)))
	r.Composite = r.Adjusted*(1-p.Curve.BlendFactor) + r.Bell*p.Curve.BlendFactor

	score := math.Round(r.Composite * p.Curve.Scale)

	// 표본 크기 보정: 출전 수 많으면 가산, 적으면 감산 (결측은 0으로 간주)
	r.Activity, _ = stats.Feature(p.Activity.Feature)
	switch {
	case r.Activity >= p.Activity.HighThreshold:
		r.Adjustment = p.Activity.Bonus
	case r.Activity < p.Activity.LowThreshold:
		r.Adjustment = -p.Activity.Penalty
	}
	r.Score = math.Max(0, math.Min(100, score+r.Adjustment))

	n.logger.WithFields(map[string]interface{}{
		"profile":     p.Meta.ProfileID,
		"raw":         r.Raw,
		"astro_index": r.AstroIndex,
		"score":       r.Score,
	}).Debug("Computed influence score")

	return r
}

// AstroIndex folds the detector's significance-ordered aspect list into [-1,1].
// Each aspect contributes polarity · tightness · (1 or minor factor) · decay^rank.
func (n *Normalizer) AstroIndex(aspects []contracts.Aspect) float64 {
	a := n.profile.Astro

	sum := 0.0
	weight := 1.0
	for _, asp := range aspects {
		tightness := 1 - math.Min(math.Abs(asp.OrbDelta), a.OrbReference)/a.OrbReference
		factor := 1.0
		if !asp.Type.IsMajor() {
			factor = a.MinorFactor
		}
		term := a.Polarity[asp.Type.String()] * tightness * factor * weight
		if finite(term) {
			sum += term
		}
		weight *= a.Decay
	}

	return math.Tanh(sum / a.Squash)
}

// Record wraps a Result into the persisted form
func (n *Normalizer) Record(entityID string, r Result, computedAt time.Time) contracts.ScoreRecord {
	return contracts.ScoreRecord{
		EntityID:        entityID,
		RawScore:        r.Raw,
		NormalizedScore: r.Score,
		Profile:         n.profile.Meta.ProfileID,
		ComputedAt:      computedAt,
	}
}
