package views

import (
	"weather-dashboard/internal/units"
)

// Reading is a rendered temperature: the canonical Celsius value and the text on screen.
type Reading struct {
	Celsius float64 `json:"celsius"`
	Text    string  `json:"text"`

	bare    bool // "21°" rather than "21°C"
	missing bool // placeholder, no value behind it
}

// unitState decides how readings are rendered and re-derived.
type unitState struct {
	unit   units.Unit
	legacy bool
}

func (s unitState) reading(c float64) Reading {
	if s.legacy {
		// legacy text always starts out in Celsius and is converted as text
		return Reading{Celsius: c, Text: units.ConvertText(units.Format(c, units.Celsius), s.unit)}
	}
	return Reading{Celsius: c, Text: units.Format(c, s.unit)}
}

func (s unitState) bareReading(c float64) Reading {
	u := s.unit
	if s.legacy {
		u = units.Celsius
	}
	return Reading{Celsius: c, Text: units.FormatBare(c, u), bare: true}
}

func (s unitState) placeholder() Reading {
	u := s.unit
	if s.legacy {
		u = units.Celsius
	}
	return Reading{Text: "--" + u.Symbol(), missing: true}
}

// reapply re-derives r for the current unit.
func (s unitState) reapply(r *Reading) {
	switch {
	case s.legacy:
		r.Text = units.ConvertText(r.Text, s.unit)
	case r.missing:
		r.Text = "--" + s.unit.Symbol()
	case r.bare:
		r.Text = units.FormatBare(r.Celsius, s.unit)
	default:
		r.Text = units.Format(r.Celsius, s.unit)
	}
}

// chartValue is the value plotted for c: legacy charts stay in Celsius.
func (s unitState) chartValue(c float64) float64 {
	if s.legacy {
		return float64(units.Value(c, units.Celsius))
	}
	return float64(units.Value(c, s.unit))
}

func (s unitState) chartSymbol() string {
	if s.legacy {
		return units.Celsius.Symbol()
	}
	return s.unit.Symbol()
}
