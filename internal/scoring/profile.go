package scoring

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wonny/astrobet/internal/contracts"
)

//go:embed profiles/nba_impact_v1.yaml
var defaultProfileYAML []byte

// DefaultProfileID names the embedded canonical profile
const DefaultProfileID = "nba_impact_v1"

// Profile is the explicit weight table and curve parameters for the normalizer.
// ⭐ SSOT: 가중치/커브 상수는 프로파일 YAML로만 주입
type Profile struct {
	Meta     ProfileMeta     `yaml:"meta" json:"meta"`
	Features []FeatureWeight `yaml:"features" json:"features"`
	Curve    CurveParams     `yaml:"curve" json:"curve"`
	Activity ActivityParams  `yaml:"activity" json:"activity"`
	Astro    AstroParams     `yaml:"astro" json:"astro"`
}

type ProfileMeta struct {
	ProfileID   string `yaml:"profile_id" json:"profile_id"`
	Description string `yaml:"description" json:"description"`
}

// FeatureWeight contributes value/Scale*Weight to the raw score
type FeatureWeight struct {
	Name   string  `yaml:"name" json:"name"`
	Weight float64 `yaml:"weight" json:"weight"`
	Scale  float64 `yaml:"scale" json:"scale"`
}

type CurveParams struct {
	Power       float64 `yaml:"power" json:"power"`
	BellCenter  float64 `yaml:"bell_center" json:"bell_center"`
	BellSpread  float64 `yaml:"bell_spread" json:"bell_spread"`
	BlendFactor float64 `yaml:"blend_factor" json:"blend_factor"`
	Scale       float64 `yaml:"scale" json:"scale"`
}

// ActivityParams is the sample-size adjustment applied after scaling
type ActivityParams struct {
	Feature       string  `yaml:"feature" json:"feature"`
	HighThreshold float64 `yaml:"high_threshold" json:"high_threshold"`
	Bonus         float64 `yaml:"bonus" json:"bonus"`
	LowThreshold  float64 `yaml:"low_threshold" json:"low_threshold"`
	Penalty       float64 `yaml:"penalty" json:"penalty"`
}

// AstroParams turns an aspect list into the signed astro index feature
type AstroParams struct {
	Feature      string             `yaml:"feature" json:"feature"`
	Decay        float64            `yaml:"decay" json:"decay"`
	MinorFactor  float64            `yaml:"minor_factor" json:"minor_factor"`
	OrbReference float64            `yaml:"orb_reference" json:"orb_reference"`
	Squash       float64            `yaml:"squash" json:"squash"`
	Polarity     map[string]float64 `yaml:"polarity" json:"polarity"`
}

// DefaultProfile returns the embedded canonical profile
func DefaultProfile() (*Profile, error) {
	return ParseProfile(defaultProfileYAML)
}

// LoadProfile reads a profile file; empty path yields the embedded default
func LoadProfile(path string) (*Profile, error) {
	if path == "" {
		return DefaultProfile()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scoring profile: %w", err)
	}
	return ParseProfile(data)
}

// ParseProfile decodes strictly (unknown keys fail) and validates
func ParseProfile(data []byte) (*Profile, error) {
	var p Profile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // 알 수 없는 필드 발견 시 에러 반환
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("failed to decode scoring profile: %w", err)
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Hash is the SHA-256 of the canonical JSON form, for provenance in logs
func (p *Profile) Hash() (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Validate checks every constraint the normalizer relies on
func (p *Profile) Validate() error {
	invalid := func(field, msg string) error {
		return contracts.NewValidationError(contracts.ErrInvalidInput, field, msg)
	}

	if p.Meta.ProfileID == "" {
		return invalid("meta.profile_id", "required")
	}
	if len(p.Features) == 0 {
		return invalid("features", "at least one feature required")
	}

	seen := make(map[string]bool, len(p.Features))
	for i, f := range p.Features {
		field := fmt.Sprintf("features[%d]", i)
		if f.Name == "" {
			return invalid(field+".name", "required")
		}
		if seen[f.Name] {
			return invalid(field+".name", fmt.Sprintf("duplicate feature %q", f.Name))
		}
		seen[f.Name] = true
		if !finite(f.Weight) {
			return invalid(field+".weight", "must be finite")
		}
		if !finite(f.Scale) || f.Scale <= 0 {
			return invalid(field+".scale", "must be > 0")
		}
	}

	c := p.Curve
	if !finite(c.Power) || c.Power <= 0 {
		return invalid("curve.power", "must be > 0")
	}
	if !finite(c.BellSpread) || c.BellSpread <= 0 {
		return invalid("curve.bell_spread", "must be > 0")
	}
	if c.BellCenter < 0 || c.BellCenter > 1 {
		return invalid("curve.bell_center", "must be in [0,1]")
	}
	if c.BlendFactor < 0 || c.BlendFactor > 1 {
		return invalid("curve.blend_factor", "must be in [0,1]")
	}
	if c.Scale <= 0 || c.Scale > 100 {
		return invalid("curve.scale", "must be in (0,100]")
	}

	a := p.Activity
	if a.Feature == "" {
		return invalid("activity.feature", "required")
	}
	if a.LowThreshold > a.HighThreshold {
		return invalid("activity", "low_threshold must be <= high_threshold")
	}
	if a.Bonus < 0 || a.Penalty < 0 {
		return invalid("activity", "bonus and penalty must be >= 0")
	}

	s := p.Astro
	if s.Feature != "" && !seen[s.Feature] {
		return invalid("astro.feature", fmt.Sprintf("%q is not a weighted feature", s.Feature))
	}
	if s.Decay <= 0 || s.Decay > 1 {
		return invalid("astro.decay", "must be in (0,1]")
	}
	if s.MinorFactor < 0 || s.MinorFactor > 1 {
		return invalid("astro.minor_factor", "must be in [0,1]")
	}
	if s.OrbReference <= 0 {
		return invalid("astro.orb_reference", "must be > 0")
	}
	if s.Squash <= 0 {
		return invalid("astro.squash", "must be > 0")
	}
	known := make(map[string]bool)
	for t := contracts.Conjunction; t <= contracts.Quincunx; t++ {
		known[t.String()] = true
	}
	for name, v := range s.Polarity {
		if !known[name] {
			return invalid("astro.polarity", fmt.Sprintf("unknown aspect type %q", name))
		}
		if v < -1 || v > 1 {
			return invalid("astro.polarity."+name, "must be in [-1,1]")
		}
	}

	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
