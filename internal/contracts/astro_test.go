package contracts

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMomentValidate(t *testing.T) {
	tests := []struct {
		name  string
		m     Moment
		field string
	}{
		{"valid", Moment{Year: 1990, Month: 6, Day: 15, Hour: 12, UTCOffsetMinutes: -240}, ""},
		{"leap day", Moment{Year: 2024, Month: 2, Day: 29}, ""},
		{"not a leap year", Moment{Year: 2023, Month: 2, Day: 29}, "day"},
		{"day zero", Moment{Year: 2023, Month: 1, Day: 0}, "day"},
		{"month 13", Moment{Year: 2023, Month: 13, Day: 1}, "month"},
		{"hour 24", Moment{Year: 2023, Month: 1, Day: 1, Hour: 24}, "hour"},
		{"minute 60", Moment{Year: 2023, Month: 1, Day: 1, Minute: 60}, "minute"},
		{"offset beyond 14h", Moment{Year: 2023, Month: 1, Day: 1, UTCOffsetMinutes: 15 * 60}, "utcOffsetMinutes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.m.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}

			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
			assert.ErrorIs(t, err, ErrInvalidMoment)
		})
	}
}

func TestMomentUTC(t *testing.T) {
	m := Moment{Year: 1990, Month: 6, Day: 15, Hour: 12, UTCOffsetMinutes: -240}
	assert.Equal(t, time.Date(1990, 6, 15, 16, 0, 0, 0, time.UTC), m.UTC())
	assert.Equal(t, "1990-06-15T12:00-04:00", m.String())

	// 날짜 경계 넘김
	m = Moment{Year: 2000, Month: 1, Day: 1, Hour: 3, Minute: 30, UTCOffsetMinutes: 330}
	assert.Equal(t, time.Date(1999, 12, 31, 22, 0, 0, 0, time.UTC), m.UTC())
	assert.Equal(t, "2000-01-01T03:30+05:30", m.String())
}

func TestMomentFromTime(t *testing.T) {
	loc := time.FixedZone("EDT", -4*3600)
	m := MomentFromTime(time.Date(1990, 6, 15, 12, 0, 0, 0, loc))
	assert.Equal(t, Moment{Year: 1990, Month: 6, Day: 15, Hour: 12, UTCOffsetMinutes: -240}, m)
}

func TestGeoCoordinateValidate(t *testing.T) {
	assert.NoError(t, GeoCoordinate{Latitude: 90, Longitude: -180}.Validate())
	assert.ErrorIs(t, GeoCoordinate{Latitude: 90.5}.Validate(), ErrInvalidLocation)
	assert.ErrorIs(t, GeoCoordinate{Longitude: 181}.Validate(), ErrInvalidLocation)
	assert.ErrorIs(t, GeoCoordinate{Latitude: math.NaN()}.Validate(), ErrInvalidLocation)
}

func TestNormalizeDegrees(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{360, 0},
		{725, 5},
		{-30, 330},
		{-1e-15, 0},
	}
	for _, tt := range tests {
		got := NormalizeDegrees(tt.in)
		assert.InDelta(t, tt.want, got, 1e-9, "in=%v", tt.in)
		assert.Less(t, got, 360.0)
	}

	assert.Equal(t, 180.0, SignedDelta(180))
	assert.Equal(t, -170.0, SignedDelta(190))
	assert.Equal(t, 10.0, SignedDelta(-350))
}

func TestSignOf(t *testing.T) {
	sign, deg := SignOf(84.5)
	assert.Equal(t, Gemini, sign)
	assert.InDelta(t, 24.5, deg, 1e-9)

	sign, deg = SignOf(359.9999)
	assert.Equal(t, Pisces, sign)
	assert.Less(t, deg, 30.0)

	sign, _ = SignOf(-10)
	assert.Equal(t, Pisces, sign)
}

func TestBodyNames(t *testing.T) {
	for _, b := range AllBodies {
		parsed, err := ParseBody(" " + b.String() + " ")
		require.NoError(t, err)
		assert.Equal(t, b, parsed)
	}
	_, err := ParseBody("Pluto")
	assert.Error(t, err)

	assert.Equal(t, "☉", Sun.Symbol())
	assert.Equal(t, "?", Body(42).Symbol())
}

func TestAspectTypeJSON(t *testing.T) {
	data, err := json.Marshal(Aspect{BodyA: Sun, BodyB: Moon, Type: Quincunx})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"quincunx"`)
	assert.True(t, Trine.IsMajor())
	assert.False(t, SemiSquare.IsMajor())
}

func TestValidationError(t *testing.T) {
	err := NewValidationError(ErrInvalidInput, "points", "negative")
	assert.True(t, IsValidation(err))
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "invalid input: points: negative", err.Error())
	assert.False(t, IsValidation(errors.New("plain")))
}

func TestRunSummaryProcessed(t *testing.T) {
	s := RunSummary{Total: 10, Updated: 6, Skipped: 3, Failed: 1}
	assert.Equal(t, s.Total, s.Processed())
}
