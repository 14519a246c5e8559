package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/prune/internal/formatter"
	"github.com/urfave/cli/v3"
)

// ChartCountries lists the countries with a registered chart.
func (r *Runner) ChartCountries(ctx context.Context, cmd *cli.Command) error {
	app, err := r.services()
	if err != nil {
		return err
	}

	codes := app.charts.Countries()
	countries := make(formatter.Countries, 0, len(codes))
	for _, code := range codes {
		countries = append(countries, formatter.Country{Code: code, Name: app.charts.Name(code)})
	}
	return r.render(countries)
}

// ChartTop shows the most charted artists for --country.
func (r *Runner) ChartTop(ctx context.Context, cmd *cli.Command) error {
	app, err := r.services()
	if err != nil {
		return err
	}

	result, err := app.charts.TopArtists(ctx, r.user, cmd.String("country"))
	if err != nil {
		return fmt.Errorf("failed to fetch charts: %w", err)
	}
	return r.render(result)
}
