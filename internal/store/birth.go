// Package store holds what the score store drivers share: the stored shape of
// an entity's birth data and its conversion into contracts.Entity.
package store

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wonny/astrobet/internal/contracts"
)

// DefaultBirthTime is assumed when the birth time is unknown (solar noon chart)
const DefaultBirthTime = "12:00"

// PlayerRow is one row of the players table as both drivers read it
type PlayerRow struct {
	ID               string   `json:"id"`
	ExternalID       *string  `json:"external_player_id"`
	Name             string   `json:"full_name"`
	BirthDate        *string  `json:"birth_date"` // YYYY-MM-DD
	BirthTime        *string  `json:"birth_time"` // HH:MM[:SS]
	UTCOffsetMinutes *int     `json:"birth_utc_offset_minutes"`
	Latitude         *float64 `json:"birth_latitude"`
	Longitude        *float64 `json:"birth_longitude"`
}

// Entity converts the row. Rows without a birth date or birthplace coordinates
// cannot be charted and are rejected.
func (r PlayerRow) Entity() (contracts.Entity, error) {
	e := contracts.Entity{
		ID:   r.ID,
		Name: strings.TrimSpace(r.Name),
	}
	if r.ExternalID != nil {
		e.ExternalID = strings.TrimSpace(*r.ExternalID)
	}

	if r.BirthDate == nil || *r.BirthDate == "" {
		return e, fmt.Errorf("player %s: %w", r.ID, contracts.NewValidationError(contracts.ErrInvalidMoment, "birth_date", "missing"))
	}
	if r.Latitude == nil || r.Longitude == nil {
		return e, fmt.Errorf("player %s: %w", r.ID, contracts.NewValidationError(contracts.ErrInvalidLocation, "birth_latitude", "missing"))
	}

	clock := DefaultBirthTime
	if r.BirthTime != nil && *r.BirthTime != "" {
		clock = *r.BirthTime
	}
	offset := 0
	if r.UTCOffsetMinutes != nil {
		offset = *r.UTCOffsetMinutes
	}

	m, err := ParseMoment(*r.BirthDate, clock, offset)
	if err != nil {
		return e, fmt.Errorf("player %s: %w", r.ID, err)
	}
	e.Birth = m
	e.BirthPlace = contracts.GeoCoordinate{Latitude: *r.Latitude, Longitude: *r.Longitude}

	if err := e.BirthPlace.Validate(); err != nil {
		return e, fmt.Errorf("player %s: %w", r.ID, err)
	}
	return e, nil
}

// ParseMoment builds a validated Moment from "YYYY-MM-DD" and "HH:MM[:SS]".
// Seconds are dropped; a trailing timestamp part on the date is ignored.
func ParseMoment(date, clock string, utcOffsetMinutes int) (contracts.Moment, error) {
	if i := strings.IndexAny(date, "T "); i > 0 {
		date = date[:i]
	}

	dparts := strings.Split(strings.TrimSpace(date), "-")
	if len(dparts) != 3 {
		return contracts.Moment{}, contracts.NewValidationError(contracts.ErrInvalidMoment, "birth_date", fmt.Sprintf("%q is not YYYY-MM-DD", date))
	}
	cparts := strings.Split(strings.TrimSpace(clock), ":")
	if len(cparts) < 2 || len(cparts) > 3 {
		return contracts.Moment{}, contracts.NewValidationError(contracts.ErrInvalidMoment, "birth_time", fmt.Sprintf("%q is not HH:MM", clock))
	}

	nums := make([]int, 0, 5)
	for _, p := range append(dparts, cparts[:2]...) {
		n, err := strconv.Atoi(p)
		if err != nil {
			return contracts.Moment{}, contracts.NewValidationError(contracts.ErrInvalidMoment, "birth", fmt.Sprintf("%q is not a number", p))
		}
		nums = append(nums, n)
	}

	m := contracts.Moment{
		Year:             nums[0],
		Month:            nums[1],
		Day:              nums[2],
		Hour:             nums[3],
		Minute:           nums[4],
		UTCOffsetMinutes: utcOffsetMinutes,
	}
	if err := m.Validate(); err != nil {
		return contracts.Moment{}, err
	}
	return m, nil
}

// Entities converts rows, returning the convertible entities in row order and
// the ids of rows that were dropped.
func Entities(rows []PlayerRow) ([]contracts.Entity, []string) {
	entities := make([]contracts.Entity, 0, len(rows))
	var dropped []string
	for _, r := range rows {
		e, err := r.Entity()
		if err != nil {
			dropped = append(dropped, r.ID)
			continue
		}
		entities = append(entities, e)
	}
	return entities, dropped
}
