package scoring

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/astrobet/internal/contracts"
)

func TestDefaultProfile(t *testing.T) {
	p, err := DefaultProfile()
	require.NoError(t, err)

	assert.Equal(t, DefaultProfileID, p.Meta.ProfileID)
	assert.Len(t, p.Features, 13)
	assert.Equal(t, 1.1, p.Curve.Power)
	assert.Equal(t, 0.28, p.Curve.BellSpread)
	assert.Equal(t, 0.2, p.Curve.BlendFactor)
	assert.Equal(t, 90.0, p.Curve.Scale)
	assert.Equal(t, "games_played", p.Activity.Feature)
	assert.Len(t, p.Astro.Polarity, 10)

	negatives := 0
	for _, f := range p.Features {
		if f.Weight < 0 {
			negatives++
		}
	}
	assert.Equal(t, 2, negatives, "turnovers and fouls penalize")
}

func TestProfileHashIsStable(t *testing.T) {
	a, err := DefaultProfile()
	require.NoError(t, err)
	b, err := DefaultProfile()
	require.NoError(t, err)

	ha, err := a.Hash()
	require.NoError(t, err)
	hb, err := b.Hash()
	require.NoError(t, err)

	assert.Len(t, ha, 64)
	assert.Equal(t, ha, hb)

	b.Features[0].Weight = 0.31
	hc, err := b.Hash()
	require.NoError(t, err)
	assert.NotEqual(t, ha, hc)
}

func TestLoadProfile(t *testing.T) {
	p, err := LoadProfile("")
	require.NoError(t, err)
	assert.Equal(t, DefaultProfileID, p.Meta.ProfileID)

	path := filepath.Join(t.TempDir(), "custom.yaml")
	custom := strings.Replace(string(defaultProfileYAML), "profile_id: nba_impact_v1", "profile_id: nba_impact_v2", 1)
	require.NoError(t, os.WriteFile(path, []byte(custom), 0o600))

	p, err = LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, "nba_impact_v2", p.Meta.ProfileID)

	_, err = LoadProfile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseProfileRejectsUnknownFields(t *testing.T) {
	data := strings.Replace(string(defaultProfileYAML), "  power: 1.1", "  power: 1.1\n  powr: 2", 1)
	_, err := ParseProfile([]byte(data))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "powr")
}

func TestProfileValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Profile)
		field  string
	}{
		{"missing id", func(p *Profile) { p.Meta.ProfileID = "" }, "meta.profile_id"},
		{"no features", func(p *Profile) { p.Features = nil }, "features"},
		{"duplicate feature", func(p *Profile) { p.Features[1].Name = p.Features[0].Name }, "features[1].name"},
		{"zero scale", func(p *Profile) { p.Features[0].Scale = 0 }, "features[0].scale"},
		{"bad power", func(p *Profile) { p.Curve.Power = 0 }, "curve.power"},
		{"bad spread", func(p *Profile) { p.Curve.BellSpread = -1 }, "curve.bell_spread"},
		{"bad blend", func(p *Profile) { p.Curve.BlendFactor = 1.5 }, "curve.blend_factor"},
		{"bad scale", func(p *Profile) { p.Curve.Scale = 120 }, "curve.scale"},
		{"inverted thresholds", func(p *Profile) { p.Activity.LowThreshold = 100 }, "activity"},
		{"astro feature not weighted", func(p *Profile) { p.Astro.Feature = "stars" }, "astro.feature"},
		{"bad decay", func(p *Profile) { p.Astro.Decay = 0 }, "astro.decay"},
		{"unknown polarity", func(p *Profile) { p.Astro.Polarity["septile"] = 1 }, "astro.polarity"},
		{"polarity range", func(p *Profile) { p.Astro.Polarity["trine"] = 2 }, "astro.polarity.trine"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := DefaultProfile()
			require.NoError(t, err)
			tt.mutate(p)

			err = p.Validate()
			require.Error(t, err)
			var ve *contracts.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
			assert.ErrorIs(t, err, contracts.ErrInvalidInput)
		})
	}
}
