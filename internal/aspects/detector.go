package aspects

import (
	"math"
	"sort"

	"github.com/wonny/astrobet/internal/contracts"
	"github.com/wonny/astrobet/pkg/logger"
)

// applyingStep is how far (days) both bodies are advanced to decide applying vs separating
const applyingStep = 1.0 / 24

// Rule is one target angle and its tolerance
type Rule struct {
	Type  contracts.AspectType
	Angle float64
	Orb   float64
}

// DefaultRules: majors carry wider orbs than minors.
// ⭐ SSOT: 애스펙트 각도/오브 테이블
var DefaultRules = []Rule{
	{contracts.Conjunction, 0, 8},
	{contracts.Sextile, 60, 6},
	{contracts.Square, 90, 7},
	{contracts.Trine, 120, 8},
	{contracts.Opposition, 180, 8},
	{contracts.SemiSextile, 30, 2},
	{contracts.SemiSquare, 45, 2},
	{contracts.Quintile, 72, 2},
	{contracts.Sesquiquadrate, 135, 2},
	{contracts.Quincunx, 150, 3},
}

// Detector finds aspects between every unordered pair of bodies.
// ⭐ SSOT: 애스펙트 판정은 여기서만
type Detector struct {
	logger *logger.Logger
	rules  []Rule
}

// NewDetector creates a detector with DefaultRules
func NewDetector(log *logger.Logger) *Detector {
	return NewDetectorWithRules(log, DefaultRules)
}

// NewDetectorWithRules creates a detector with a custom rule table
func NewDetectorWithRules(log *logger.Logger, rules []Rule) *Detector {
	return &Detector{
		logger: log,
		rules:  append([]Rule(nil), rules...),
	}
}

// Separation is the shorter arc between two longitudes, in [0,180]
func Separation(a, b float64) float64 {
	d := math.Abs(contracts.NormalizeDegrees(a) - contracts.NormalizeDegrees(b))
	return math.Min(d, 360-d)
}

// Detect returns aspects sorted majors first, then by ascending |orb|, then by pair.
// The result does not depend on the order of bodies.
func (d *Detector) Detect(bodies []contracts.CelestialBody) []contracts.Aspect {
	sorted := append([]contracts.CelestialBody(nil), bodies...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Body < sorted[j].Body })

	var out []contracts.Aspect
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			a, b := sorted[i], sorted[j]
			if a.Body == b.Body {
				continue
			}
			if asp, ok := d.classify(a, b); ok {
				out = append(out, asp)
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })

	d.logger.WithFields(map[string]interface{}{
		"bodies":  len(bodies),
		"aspects": len(out),
	}).Debug("Detected aspects")

	return out
}

// classify picks the best-matching rule for a pair. Smaller |deviation| wins;
// an exact tie goes to the major aspect.
func (d *Detector) classify(a, b contracts.CelestialBody) (contracts.Aspect, bool) {
	sep := Separation(a.Longitude, b.Longitude)

	best := -1
	bestDev := 0.0
	for i, r := range d.rules {
		dev := sep - r.Angle
		if math.Abs(dev) > r.Orb {
			continue
		}
		if best < 0 || betterMatch(dev, r.Type, bestDev, d.rules[best].Type) {
			best, bestDev = i, dev
		}
	}
	if best < 0 {
		return contracts.Aspect{}, false
	}

	rule := d.rules[best]
	return contracts.Aspect{
		BodyA:    a.Body,
		BodyB:    b.Body,
		Type:     rule.Type,
		OrbDelta: bestDev,
		Applying: applying(a, b, rule.Angle, bestDev),
	}, true
}

func betterMatch(dev float64, t contracts.AspectType, bestDev float64, bestType contracts.AspectType) bool {
	ad, bd := math.Abs(dev), math.Abs(bestDev)
	if ad != bd {
		return ad < bd
	}
	return t.IsMajor() && !bestType.IsMajor()
}

// applying reports whether the pair is moving toward exactness
func applying(a, b contracts.CelestialBody, angle, dev float64) bool {
	if a.DailySpeed == b.DailySpeed {
		return false
	}
	nextA := a.Longitude + a.DailySpeed*applyingStep
	nextB := b.Longitude + b.DailySpeed*applyingStep
	nextDev := Separation(nextA, nextB) - angle
	return math.Abs(nextDev) < math.Abs(dev)
}

func less(x, y contracts.Aspect) bool {
	if x.Type.IsMajor() != y.Type.IsMajor() {
		return x.Type.IsMajor()
	}
	ox, oy := math.Abs(x.OrbDelta), math.Abs(y.OrbDelta)
	if ox != oy {
		return ox < oy
	}
	if x.BodyA != y.BodyA {
		return x.BodyA < y.BodyA
	}
	if x.BodyB != y.BodyB {
		return x.BodyB < y.BodyB
	}
	return x.Type < y.Type
}
