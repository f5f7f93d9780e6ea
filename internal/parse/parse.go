// Package parse converts the raw strings found on result pages into numbers
// and formats derived values back into the strings shown to runners' fans.
//
// Every function here is total: an unparseable input yields ok == false and
// never an error or a panic.
package parse

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	distancePattern = regexp.MustCompile(`(?i)(\d*\.?\d+)\s*km`)
	pacePattern     = regexp.MustCompile(`(\d+)'(\d+)"`)
)

// DistanceKm extracts the number preceding a "km" unit marker.
// "21.0975km" -> 21.0975, ".5km" -> 0.5, "~12km" -> 12, "km" -> false.
func DistanceKm(label string) (float64, bool) {
	m := distancePattern.FindStringSubmatch(label)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ClockMinutes converts an "H:MM:SS" duration into minutes.
func ClockMinutes(text string) (float64, bool) {
	text = strings.TrimSpace(text)
	if text == "" || text == "-" {
		return 0, false
	}

	parts := strings.Split(text, ":")
	if len(parts) != 3 {
		return 0, false
	}

	var fields [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return 0, false
		}
		fields[i] = n
	}

	hours, minutes, seconds := fields[0], fields[1], fields[2]
	return float64(hours)*60 + float64(minutes) + float64(seconds)/60, true
}

// FormatPace renders minutes per km as M'SS"/km, flooring both parts.
func FormatPace(minPerKm float64) string {
	minutes := math.Floor(minPerKm)
	seconds := math.Floor((minPerKm - minutes) * 60)
	return fmt.Sprintf("%d'%02d\"/km", int(minutes), int(seconds))
}

// PaceMinutes parses a pace produced by FormatPace back into minutes per km.
func PaceMinutes(pace string) (float64, bool) {
	m := pacePattern.FindStringSubmatch(pace)
	if m == nil {
		return 0, false
	}
	minutes, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	seconds, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, false
	}
	return float64(minutes) + float64(seconds)/60, true
}

// FormatFinishClock renders a total duration in minutes as HH:MM:00.
// Seconds are always zero because the input is derived from a pace rounded
// to whole seconds per km.
func FormatFinishClock(totalMinutes float64) string {
	hours := math.Floor(totalMinutes / 60)
	mins := math.Floor(math.Mod(totalMinutes, 60))
	return fmt.Sprintf("%02d:%02d:00", int(hours), int(mins))
}

// DistanceLabel renders a km value as the canonical checkpoint label,
// dropping trailing zeros: "5.00" -> "5km", "21.0975" -> "21.0975km".
func DistanceLabel(km decimal.Decimal) string {
	return km.String() + "km"
}

// DistanceLabelFromString is DistanceLabel for loosely typed feeds. An empty
// or non-numeric value yields ok == false.
func DistanceLabelFromString(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return "", false
	}
	return DistanceLabel(d), true
}
