package atis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maauso/atis-broadcast/internal/prompt"
)

func validReport() Report {
	return Report{
		Airport:             "HEATHROW",
		Letter:              "B",
		Time:                "1250",
		Wind:                "27015",
		Visibility:          "9999",
		TemperatureDewPoint: "12/M02",
		DepartureRunway:     "27R",
		ArrivalRunway:       "",
		CloudLayer:          "FEW035",
		TransitionLevel:     "070",
		QNH:                 "1013",
	}
}

func TestFormat(t *testing.T) {
	got, err := Format(validReport())

	require.NoError(t, err)
	want := "THISIS HEATHROW INFO B AUTOMATIC TIME 1250Z.\n" +
		"RWYINUSE 27 RIGHT.SURFACEWINDS 270 DEGREES AT 15 KNOTS VISIBILITY KMORMORE FEW035 " +
		"TEMPERATURE 12 DEGREES DEWPOINT MINUS 02 DEGREES QNH 1013 HECTOPASCALS.\n" +
		"TRANSITIONLEVEL FL070.\n" +
		"ACKNOWLEDGE B ADVISEACFTTYPE ONFIRSTCONTACT WITH HEATHROW."
	assert.Equal(t, want, got)
}

func TestFormat_Runways(t *testing.T) {
	tests := []struct {
		name      string
		departure string
		arrival   string
		want      string
	}{
		{"single runway", "09L", "", "RWYINUSE 09 LEFT."},
		{"same runway both ways", "09L", "09L", "RWYINUSE 09 LEFT."},
		{"split operations", "27R", "27L", "DEP RWY 27 RIGHT ARR RWY 27 LEFT."},
		{"no suffix", "18", "36", "DEP RWY 18 ARR RWY 36."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validReport()
			r.DepartureRunway = tt.departure
			r.ArrivalRunway = tt.arrival

			got, err := Format(r)

			require.NoError(t, err)
			assert.Contains(t, got, tt.want)
		})
	}
}

func TestFormat_Wind(t *testing.T) {
	tests := []struct {
		wind string
		want string
	}{
		{"27015", "SURFACEWINDS 270 DEGREES AT 15 KNOTS VISIBILITY"},
		{"27015KT", "SURFACEWINDS 270 DEGREES AT 15 KNOTS VISIBILITY"},
		{"27015G25", "SURFACEWINDS 270 DEGREES AT 15 KNOTS GUSTING 25 KNOTS VISIBILITY"},
		{"27015G25KT", "SURFACEWINDS 270 DEGREES AT 15 KNOTS GUSTING 25 KNOTS VISIBILITY"},
		{"VRB03", "SURFACEWINDS VRB DEGREES AT 03 KNOTS VISIBILITY"},
	}

	for _, tt := range tests {
		t.Run(tt.wind, func(t *testing.T) {
			r := validReport()
			r.Wind = tt.wind

			got, err := Format(r)

			require.NoError(t, err)
			assert.Contains(t, got, tt.want)
		})
	}
}

func TestFormat_VisibilityVerbatimUnlessUnlimited(t *testing.T) {
	r := validReport()
	r.Visibility = "4000"

	got, err := Format(r)

	require.NoError(t, err)
	assert.Contains(t, got, "VISIBILITY 4000 FEW035")
}

func TestFormat_NegativeTemperatures(t *testing.T) {
	r := validReport()
	r.TemperatureDewPoint = "M05/M10"

	got, err := Format(r)

	require.NoError(t, err)
	assert.Contains(t, got, "TEMPERATURE MINUS 05 DEGREES DEWPOINT MINUS 10 DEGREES")
}

func TestFormat_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Report)
	}{
		{"missing airport", func(r *Report) { r.Airport = "" }},
		{"short wind", func(r *Report) { r.Wind = "270" }},
		{"temperature without slash", func(r *Report) { r.TemperatureDewPoint = "12" }},
		{"time not numeric", func(r *Report) { r.Time = "12h5" }},
		{"letter not alphabetic", func(r *Report) { r.Letter = "1" }},
		{"qnh not numeric", func(r *Report) { r.QNH = "29.92" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validReport()
			tt.mutate(&r)

			_, err := Format(r)

			assert.ErrorIs(t, err, ErrInvalidReport)
		})
	}
}

func TestFormat_TokenizesIntoBroadcastWords(t *testing.T) {
	text, err := Format(validReport())
	require.NoError(t, err)

	words := prompt.Words(prompt.Tokenize(text))

	assert.Equal(t, []string{"THISIS", "HEATHROW", "INFO", "B", "AUTOMATIC", "TIME", "1", "2", "5", "0", "Z"}, words[:11])
	assert.Equal(t, []string{"WITH", "HEATHROW"}, words[len(words)-2:])
	assert.Zero(t, prompt.CountDelays(prompt.Tokenize(text)))
}
