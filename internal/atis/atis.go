// Package atis formats structured ATIS report fields into broadcast prompt
// text.
package atis

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidReport is returned when report fields fail validation.
var ErrInvalidReport = errors.New("atis: invalid report")

// visibilityUnlimited is the METAR code for 10 km or more.
const visibilityUnlimited = "9999"

// Report holds the raw fields of one ATIS broadcast.
type Report struct {
	// Airport is the station name as it should be spoken.
	Airport string `json:"airport" validate:"required"`
	// Letter is the information identifier.
	Letter string `json:"letter" validate:"required,alpha"`
	// Time is the observation time as HHMM.
	Time string `json:"time" validate:"required,numeric,len=4"`
	// Wind is DDDSS with an optional GGG gust suffix, e.g. 27015G25.
	Wind string `json:"wind" validate:"required,min=5"`
	// Visibility is in metres; 9999 means 10 km or more.
	Visibility string `json:"visibility" validate:"required"`
	// TemperatureDewPoint is TT/DD with M marking negatives, e.g. 05/M01.
	TemperatureDewPoint string `json:"temperatureDewPoint" validate:"required,contains=/"`
	// DepartureRunway is the runway in use for departures, e.g. 27L.
	DepartureRunway string `json:"departureRunway" validate:"required"`
	// ArrivalRunway is set when arrivals use a different runway.
	ArrivalRunway string `json:"arrivalRunway"`
	// CloudLayer is read verbatim, e.g. FEW035.
	CloudLayer string `json:"cloudLayer"`
	// TransitionLevel is the flight level number, e.g. 070.
	TransitionLevel string `json:"transitionLevel" validate:"required,numeric"`
	// QNH is the pressure setting in hectopascals.
	QNH string `json:"qnh" validate:"required,numeric"`
}

var validate = validator.New()

// Validate checks the report fields.
func (r Report) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidReport, err)
	}
	return nil
}

// Format renders the report as prompt text.
func Format(r Report) (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}

	windDir, windSpeed, gust := splitWind(r.Wind)

	visibility := r.Visibility
	if visibility == visibilityUnlimited {
		visibility = "KMORMORE"
	}

	temp, dew, _ := strings.Cut(r.TemperatureDewPoint, "/")
	temp = spokenTemperature(temp)
	dew = spokenTemperature(dew)

	departure := spokenRunway(r.DepartureRunway)
	arrival := spokenRunway(r.ArrivalRunway)

	var b strings.Builder
	fmt.Fprintf(&b, "THISIS %s INFO %s AUTOMATIC TIME %sZ.\n", r.Airport, r.Letter, r.Time)
	if arrival != "" && arrival != departure {
		fmt.Fprintf(&b, "DEP RWY %s ARR RWY %s.", departure, arrival)
	} else {
		fmt.Fprintf(&b, "RWYINUSE %s.", departure)
	}
	fmt.Fprintf(&b, "SURFACEWINDS %s DEGREES AT %s KNOTS", windDir, windSpeed)
	if gust != "" {
		fmt.Fprintf(&b, " GUSTING %s KNOTS", gust)
	}
	fmt.Fprintf(&b, " VISIBILITY %s %s TEMPERATURE %s DEGREES DEWPOINT %s DEGREES QNH %s HECTOPASCALS.\n",
		visibility, r.CloudLayer, temp, dew, r.QNH)
	fmt.Fprintf(&b, "TRANSITIONLEVEL FL%s.\n", r.TransitionLevel)
	fmt.Fprintf(&b, "ACKNOWLEDGE %s ADVISEACFTTYPE ONFIRSTCONTACT WITH %s.", r.Letter, r.Airport)

	return b.String(), nil
}

// splitWind breaks DDDSS[GGG] into direction, speed and gust.
func splitWind(wind string) (dir, speed, gust string) {
	dir, speed = wind[0:3], wind[3:5]
	if len(wind) > 5 && wind[5] == 'G' {
		gust = wind[6:min(8, len(wind))]
	}
	return dir, speed, gust
}

func spokenTemperature(s string) string {
	return strings.ReplaceAll(s, "M", "MINUS ")
}

func spokenRunway(s string) string {
	s = strings.ReplaceAll(s, "L", " LEFT")
	return strings.ReplaceAll(s, "R", " RIGHT")
}
