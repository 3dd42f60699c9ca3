package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"

	"weather-dashboard/internal/config"
	"weather-dashboard/internal/models"
	"weather-dashboard/internal/services"
	"weather-dashboard/internal/units"
	"weather-dashboard/internal/views"
	"weather-dashboard/internal/weatherapi"
	"weather-dashboard/pkg/logging"
	"weather-dashboard/pkg/metrics"
)

func main() {
	// Parse command-line flags
	city := flag.String("city", "", "City to look up (defaults to DASHBOARD_DEFAULT_CITY)")
	unitFlag := flag.String("unit", "celsius", "Temperature unit: celsius or fahrenheit")
	asJSON := flag.Bool("json", false, "Print the daily aggregates as JSON")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	unit, err := units.ParseUnit(*unitFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}

	// the CLI reports on stdout; only problems go to the log
	level := logging.ParseLevel(cfg.Logging.Level)
	if level < logging.WarnLevel {
		level = logging.WarnLevel
	}
	logger := logging.NewStructuredLogger("weather-forecast", "1.0.0", level)
	logger.SetOutput(os.Stderr)

	metricsCollector := metrics.NewCollector("weather_forecast", prometheus.NewRegistry())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := weatherapi.NewClient(cfg.Weather, logger, metricsCollector)
	cities := services.NewCityService(client, logger, metricsCollector)

	target := cfg.Dashboard.DefaultCity()
	if strings.TrimSpace(*city) != "" {
		target, err = cities.Resolve(ctx, "cli", *city)
		if errors.Is(err, services.ErrCityNotFound) {
			fmt.Fprintln(os.Stderr, services.NotFoundNotice)
			os.Exit(1)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
	}

	entries := client.Forecast(ctx, target.Lat, target.Lon)
	if entries == nil {
		fmt.Fprintln(os.Stderr, "Failed to load forecast data")
		os.Exit(1)
	}
	days := models.AggregateDaily(entries, cfg.Dashboard.Location())

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(struct {
			City models.City             `json:"city"`
			Days []models.DailyAggregate `json:"days"`
		}{target, days}); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode forecast: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Printf("%s (%s)\n\n", target.Label(), target.CoordinateLabel())
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DAY\tDATE\tMAX/MIN\tCONDITION\tICON")
	for _, d := range days {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			d.Weekday(),
			d.Date,
			units.FormatRange(d.Max, d.Min, unit)+strings.TrimPrefix(unit.Symbol(), "°"),
			d.First.Condition,
			views.IconClass(d.First.ConditionCode),
		)
	}
	w.Flush()
}
