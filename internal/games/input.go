package games

import (
	"strings"
	"time"

	"turfbuddy/backend/internal/models"
	"turfbuddy/backend/internal/store"
	"turfbuddy/backend/internal/validation"
)

type LocationInput struct {
	Address string `json:"address" validate:"required" example:"12 Park Street"`
	City    string `json:"city" validate:"required" example:"Pune"`
}

// CreateInput holds the fields a host supplies for a new game.
type CreateInput struct {
	Sport        string        `json:"sport" validate:"required" example:"football"`
	Location     LocationInput `json:"location"`
	Date         string        `json:"date" validate:"required" example:"2026-10-20"`
	Time         string        `json:"time" validate:"required" example:"18:00"`
	PlayerNeeded *int          `json:"playerNeeded" validate:"required,min=1" example:"10"`
}

func (in *CreateInput) normalize() {
	in.Sport = strings.TrimSpace(in.Sport)
	in.Location.Address = strings.TrimSpace(in.Location.Address)
	in.Location.City = strings.TrimSpace(in.Location.City)
	in.Date = strings.TrimSpace(in.Date)
	in.Time = strings.TrimSpace(in.Time)
}

// validate returns the parsed game date when every field is acceptable.
func (in *CreateInput) validate() (time.Time, error) {
	in.normalize()
	if err := validation.Struct(in); err != nil {
		return time.Time{}, err
	}
	d, ok := ParseDate(in.Date)
	if !ok {
		return time.Time{}, validation.Errorf("date", "date must be a valid date")
	}
	return d, nil
}

type LocationPatch struct {
	Address *string `json:"address"`
	City    *string `json:"city"`
}

// UpdateInput is a partial edit. The host, the membership and the status
// have no field here, so attempts to send them are dropped at decode time.
type UpdateInput struct {
	Sport        *string        `json:"sport"`
	Location     *LocationPatch `json:"location"`
	Date         *string        `json:"date"`
	Time         *string        `json:"time"`
	PlayerNeeded *int           `json:"playerNeeded"`
}

// changes validates the patch against the current game, using the same rules
// as creation, and returns only the fields that were sent.
func (in UpdateInput) changes(current *models.Game) (store.GameChanges, error) {
	capacity := current.PlayerNeeded
	merged := CreateInput{
		Sport:        current.Sport,
		Location:     LocationInput{Address: current.Location.Address, City: current.Location.City},
		Date:         store.DateKey(current.Date),
		Time:         current.Time,
		PlayerNeeded: &capacity,
	}

	var c store.GameChanges
	if in.Sport != nil {
		merged.Sport = *in.Sport
	}
	if in.Location != nil {
		if in.Location.Address != nil {
			merged.Location.Address = *in.Location.Address
		}
		if in.Location.City != nil {
			merged.Location.City = *in.Location.City
		}
	}
	if in.Date != nil {
		merged.Date = *in.Date
	}
	if in.Time != nil {
		merged.Time = *in.Time
	}
	if in.PlayerNeeded != nil {
		n := *in.PlayerNeeded
		merged.PlayerNeeded = &n
	}

	date, err := merged.validate()
	if err != nil {
		return c, err
	}

	if in.Sport != nil {
		c.Sport = &merged.Sport
	}
	if in.Location != nil && in.Location.Address != nil {
		c.Address = &merged.Location.Address
	}
	if in.Location != nil && in.Location.City != nil {
		c.City = &merged.Location.City
	}
	if in.Date != nil {
		c.Date = &date
	}
	if in.Time != nil {
		c.Time = &merged.Time
	}
	if in.PlayerNeeded != nil {
		c.PlayerNeeded = merged.PlayerNeeded
	}
	return c, nil
}

// ListFilter narrows a listing; sport and city match case-insensitive
// substrings, date matches a calendar day.
type ListFilter struct {
	Sport string `form:"sport"`
	City  string `form:"city"`
	Date  string `form:"date"`
}

func (f ListFilter) toStore() (store.GameFilter, error) {
	out := store.GameFilter{
		Sport: strings.TrimSpace(f.Sport),
		City:  strings.TrimSpace(f.City),
	}
	if date := strings.TrimSpace(f.Date); date != "" {
		d, ok := ParseDate(date)
		if !ok {
			return out, validation.Errorf("date", "date must be a valid date")
		}
		out.Date = &d
	}
	return out, nil
}
