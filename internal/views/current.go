package views

import (
	"strconv"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"weather-dashboard/internal/models"
)

// Placeholder shown for optional fields the provider omitted.
const missingValue = "-"

// CurrentDisplay is the current-conditions block shared by the dashboard and the globe panel.
type CurrentDisplay struct {
	CityName    string  `json:"city_name"`
	Location    string  `json:"location"`
	Temperature Reading `json:"temperature"`
	FeelsLike   Reading `json:"feels_like"`
	Condition   string  `json:"condition"`
	Description string  `json:"description"`
	IconClass   string  `json:"icon_class"`
	IconURL     string  `json:"icon_url"`
	Humidity    string  `json:"humidity"`
	Wind        string  `json:"wind"`
	Pressure    string  `json:"pressure"`
	UVIndex     string  `json:"uv_index"`
	Visibility  string  `json:"visibility"`
	Sunrise     string  `json:"sunrise"`
	Sunset      string  `json:"sunset"`
}

func newCurrentDisplay(c *models.CurrentConditions, fallbackName string, u unitState, iconURL func(string) string, loc *time.Location) CurrentDisplay {
	name := c.CityName
	if name == "" {
		name = fallbackName
	}

	d := CurrentDisplay{
		CityName:    name,
		Location:    models.City{Name: name, Country: c.Country}.Label(),
		Temperature: u.reading(c.Temperature),
		FeelsLike:   u.reading(c.FeelsLike),
		Condition:   c.Condition,
		Description: titleCase(c.Description),
		IconClass:   IconClass(c.ConditionCode),
		IconURL:     iconURL(c.ConditionCode),
		Humidity:    strconv.Itoa(c.Humidity) + "%",
		Wind:        formatNumber(c.WindSpeed) + " m/s",
		Pressure:    strconv.Itoa(c.Pressure) + " hPa",
		UVIndex:     missingValue,
		Visibility:  missingValue,
		Sunrise:     clock(c.Sunrise, loc),
		Sunset:      clock(c.Sunset, loc),
	}
	if c.UVIndex != nil {
		d.UVIndex = formatNumber(*c.UVIndex)
	}
	if km := c.VisibilityKm(); km != nil {
		d.Visibility = formatNumber(*km) + " km"
	}
	return d
}

func (d *CurrentDisplay) reapply(u unitState) {
	u.reapply(&d.Temperature)
	u.reapply(&d.FeelsLike)
}

func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

// formatNumber prints the shortest exact decimal form: 4 -> "4", 4.10 -> "4.1".
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func clock(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return missingValue
	}
	return t.In(loc).Format("15:04")
}
