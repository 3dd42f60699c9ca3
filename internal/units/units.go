// Package units converts and formats temperatures for display.
package units

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Unit is a temperature display unit.
type Unit string

const (
	Celsius    Unit = "celsius"
	Fahrenheit Unit = "fahrenheit"
)

// ErrUnknownUnit is returned by ParseUnit for anything but celsius or fahrenheit.
var ErrUnknownUnit = errors.New("unknown temperature unit")

// ParseUnit accepts "celsius"/"fahrenheit" and the short forms "c"/"f".
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "celsius", "c", "metric":
		return Celsius, nil
	case "fahrenheit", "f", "imperial":
		return Fahrenheit, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownUnit, s)
	}
}

// Symbol returns the degree suffix, "°C" or "°F".
func (u Unit) Symbol() string {
	if u == Fahrenheit {
		return "°F"
	}
	return "°C"
}

// Other returns the opposite unit.
func (u Unit) Other() Unit {
	if u == Fahrenheit {
		return Celsius
	}
	return Fahrenheit
}

// CToF converts and rounds to the nearest integer: round(c*9/5 + 32).
func CToF(c float64) int {
	return round(c*9/5 + 32)
}

// FToC converts and rounds to the nearest integer: round((f-32)*5/9).
func FToC(f float64) int {
	return round((f - 32) * 5 / 9)
}

// round matches the display rounding: halves go towards +Inf.
func round(v float64) int {
	return int(math.Floor(v + 0.5))
}

// Value returns the canonical Celsius temperature expressed in u, rounded.
func Value(celsius float64, u Unit) int {
	if u == Fahrenheit {
		return CToF(celsius)
	}
	return round(celsius)
}

// Format renders a canonical Celsius temperature as "21°C" or "70°F".
func Format(celsius float64, u Unit) string {
	return strconv.Itoa(Value(celsius, u)) + u.Symbol()
}

// FormatBare renders the value with a bare degree sign, as in "21°".
func FormatBare(celsius float64, u Unit) string {
	return strconv.Itoa(Value(celsius, u)) + "°"
}

// FormatRange renders "max°/min°".
func FormatRange(maxC, minC float64, u Unit) string {
	return FormatBare(maxC, u) + "/" + FormatBare(minC, u)
}

var integerPattern = regexp.MustCompile(`-?\d+`)

// ConvertText rewrites every "N°C" (to Fahrenheit) or "N°F" (to Celsius) in
// already-rendered text. Numbers without the matching suffix are left alone.
//
// Each pass rounds, so repeated round trips can drift by a degree.
func ConvertText(text string, to Unit) string {
	from := to.Other().Symbol()
	for _, raw := range integerPattern.FindAllString(text, -1) {
		n, err := strconv.Atoi(raw)
		if err != nil {
			continue
		}
		var converted int
		if to == Fahrenheit {
			converted = CToF(float64(n))
		} else {
			converted = FToC(float64(n))
		}
		text = strings.Replace(text, raw+from, strconv.Itoa(converted)+to.Symbol(), 1)
	}
	return text
}
