package views

// FallbackIconClass is shown for condition codes missing from the table.
const FallbackIconClass = "fas fa-cloud"

var iconClasses = map[string]string{
	"01d": "fas fa-sun",
	"01n": "fas fa-moon",
	"02d": "fas fa-cloud-sun",
	"02n": "fas fa-cloud-moon",
	"03d": "fas fa-cloud",
	"03n": "fas fa-cloud",
	"04d": "fas fa-clouds",
	"04n": "fas fa-clouds",
	"09d": "fas fa-cloud-rain",
	"09n": "fas fa-cloud-rain",
	"10d": "fas fa-cloud-sun-rain",
	"10n": "fas fa-cloud-moon-rain",
	"11d": "fas fa-bolt",
	"11n": "fas fa-bolt",
	"13d": "fas fa-snowflake",
	"13n": "fas fa-snowflake",
	"50d": "fas fa-smog",
	"50n": "fas fa-smog",
}

// IconClass maps a provider condition code onto a Font Awesome class.
func IconClass(code string) string {
	if class, ok := iconClasses[code]; ok {
		return class
	}
	return FallbackIconClass
}
