package models

import (
	"time"
)

// Coordinates is a latitude/longitude pair resolved from a postcode. It is
// never entered directly by a reporter.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Incident is a single reported safety event shown on the map.
type Incident struct {
	ID          int         `json:"id"`
	Type        string      `json:"type"`
	Location    string      `json:"location"`
	Description string      `json:"description"`
	Postcode    string      `json:"postcode"`
	Coordinates Coordinates `json:"coordinates"`
	Date        time.Time   `json:"date"`
}

// IncidentDraft carries the user-entered fields of a report before the
// postcode has been resolved to coordinates.
type IncidentDraft struct {
	Type        string
	Location    string
	Description string
	Postcode    string
}

// Categories is the closed set of incident types. It is the single source of
// truth shared by report validation and the filter predicate.
var Categories = []string{
	"Harassment",
	"Sexual Assault",
	"Stalking & Following",
	"Mugging & Robbery",
	"Drink Spiking",
	"Physical Assault",
	"Kidnapping",
	"Hate Crimes",
	"Transport Crimes",
	"Gang Violence",
}

// IsValidCategory reports whether t is a member of Categories.
func IsValidCategory(t string) bool {
	for _, c := range Categories {
		if c == t {
			return true
		}
	}
	return false
}
