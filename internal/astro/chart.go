// Package astro derives birth charts from submitted birth data.
//
// The current Calculator is a deterministic placeholder: it seeds table
// lookups from the lengths of the inputs instead of computing planetary
// positions. Callers depend only on the Calculator interface so a real
// ephemeris engine can replace it.
package astro

import (
	"fmt"
	"unicode/utf16"
)

// Rashis are the twelve zodiac signs, in order.
var Rashis = [12]string{
	"Mesha", "Vrishabha", "Mithuna", "Karka", "Simha", "Kanya",
	"Tula", "Vrishchika", "Dhanu", "Makara", "Kumbha", "Meena",
}

// Nakshatras are the twenty-seven lunar mansions, in order.
var Nakshatras = [27]string{
	"Ashwini", "Bharani", "Krittika", "Rohini", "Mrigashira", "Ardra",
	"Punarvasu", "Pushya", "Ashlesha", "Magha", "Purva Phalguni", "Uttara Phalguni",
	"Hasta", "Chitra", "Swati", "Vishakha", "Anuradha", "Jyeshtha",
	"Mula", "Purva Ashadha", "Uttara Ashadha", "Shravana", "Dhanishta", "Shatabhisha",
	"Purva Bhadrapada", "Uttara Bhadrapada", "Revati",
}

// BirthData is the input to a chart calculation.
type BirthData struct {
	Name     string
	Date     string
	Time     string
	Location string
}

// Placement is a body's position in the chart.
type Placement struct {
	Rashi     string `json:"rashi" bson:"rashi"`
	Nakshatra string `json:"nakshatra" bson:"nakshatra"`
	Degree    int    `json:"degree" bson:"degree"`
}

type Planets struct {
	Sun  Placement `json:"sun" bson:"sun"`
	Moon Placement `json:"moon" bson:"moon"`
	Mars Placement `json:"mars" bson:"mars"`
}

// House pairs a house lord with the sign on its cusp.
type House struct {
	Lord string `json:"lord" bson:"lord"`
	Sign string `json:"sign" bson:"sign"`
}

type Houses struct {
	First  House `json:"first" bson:"first"`
	Second House `json:"second" bson:"second"`
	Third  House `json:"third" bson:"third"`
}

// Chart is the derived payload stored with every chart record.
type Chart struct {
	Lagna   string  `json:"lagna" bson:"lagna"`
	Planets Planets `json:"planets" bson:"planets"`
	Houses  Houses  `json:"houses" bson:"houses"`
	Summary string  `json:"summary" bson:"summary"`
}

// Calculator turns birth data into a chart.
type Calculator interface {
	Calculate(BirthData) Chart
}

// MockCalculator is the hash-based placeholder engine.
type MockCalculator struct{}

func (MockCalculator) Calculate(b BirthData) Chart {
	return Derive(b)
}

// Derive computes the placeholder chart. Identical inputs always produce
// identical charts; empty strings are valid and yield seed 0.
func Derive(b BirthData) Chart {
	seed := textLength(b.Location) + textLength(b.Date) + textLength(b.Time)

	lagna := rashi(seed)
	return Chart{
		Lagna: lagna,
		Planets: Planets{
			Sun:  placement(seed+1, seed),
			Moon: placement(seed+2, seed+5),
			Mars: placement(seed+3, seed+10),
		},
		Houses: Houses{
			First:  House{Lord: "Mars", Sign: rashi(seed)},
			Second: House{Lord: "Venus", Sign: rashi(seed + 1)},
			Third:  House{Lord: "Mercury", Sign: rashi(seed + 2)},
		},
		Summary: fmt.Sprintf("Based on your birth details, you have strong %s energy. Your chart shows potential for spiritual growth and material success.", lagna),
	}
}

func placement(signOffset, degreeOffset int) Placement {
	return Placement{
		Rashi:     rashi(signOffset),
		Nakshatra: Nakshatras[signOffset%len(Nakshatras)],
		Degree:    degreeOffset%30 + 1,
	}
}

func rashi(n int) string {
	return Rashis[n%len(Rashis)]
}

// textLength counts UTF-16 code units; characters outside the Basic
// Multilingual Plane count as two. Stored charts were seeded this way.
func textLength(s string) int {
	return len(utf16.Encode([]rune(s)))
}
