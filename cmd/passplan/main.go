// Command passplan computes imaging passes for a scenario and prints them.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/signalsfoundry/pass-planner/internal/config"
	"github.com/signalsfoundry/pass-planner/internal/logging"
	"github.com/signalsfoundry/pass-planner/internal/observability"
	"github.com/signalsfoundry/pass-planner/internal/planner"
	"github.com/signalsfoundry/pass-planner/kb"
	"github.com/signalsfoundry/pass-planner/model"
)

func main() {
	log := logging.NewFromEnv()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, log); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Error(ctx, "passplan failed", logging.Err(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer, log logging.Logger) error {
	fs := flag.NewFlagSet("passplan", flag.ContinueOnError)
	configPath := fs.String("config", "configs/scenario.yaml", "path to the YAML scenario")
	startFlag := fs.String("start", "", "RFC3339 window start, overriding the scenario")
	duration := fs.Duration("duration", 0, "window length, overriding the scenario")
	format := fs.String("format", "", "output format: json or table")
	outPath := fs.String("out", "", "write results to this file instead of stdout")
	workers := fs.Int("workers", -1, "concurrent sweeps (0 = GOMAXPROCS)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	cfg.ApplyEnv(log)
	if *workers >= 0 {
		cfg.Planner.Workers = *workers
	}
	if *format != "" {
		cfg.Output.Format = *format
	}
	if *duration > 0 {
		cfg.Window.Duration = *duration
	}
	if *startFlag != "" {
		cfg.Window.Start = *startFlag
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	shutdown, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		return err
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdown, log)

	catalog, err := loadCatalog(cfg, log)
	if err != nil {
		return err
	}
	daylight, err := cfg.DaylightPolicy()
	if err != nil {
		return err
	}
	sensorTypes, err := cfg.SensorTypes()
	if err != nil {
		return err
	}
	start, end := cfg.PlanWindow(time.Now().UTC())

	p := planner.New(catalog, planner.Options{
		Workers:  cfg.Planner.Workers,
		Daylight: daylight,
		Logger:   log,
	})
	res, err := p.Plan(ctx, planner.Request{
		Targets:               cfg.AreaTargets(),
		Start:                 start,
		End:                   end,
		MaxPasses:             cfg.Planner.MaxPasses,
		Categories:            cfg.Planner.Categories,
		SensorTypes:           sensorTypes,
		IncludeGeosynchronous: cfg.Planner.IncludeGeosynchronous,
	})
	if err != nil {
		return err
	}
	for _, f := range res.Failures {
		log.Warn(ctx, "satellite failed", logging.String("satellite", f.SatelliteID), logging.String("target", f.Target), logging.Err(f.Err))
	}

	w := stdout
	if *outPath != "" {
		file, err := os.Create(*outPath)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer file.Close()
		w = file
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	passes := make([]model.Pass, len(res.Passes))
	for i, pass := range res.Passes {
		passes[i] = pass.In(loc)
	}
	if cfg.Output.Format == config.FormatJSON {
		return writeJSON(w, passes)
	}
	return writeTable(w, passes)
}

// loadCatalog fills a catalogue from the scenario. Duplicate or invalid
// entries are logged and skipped.
func loadCatalog(cfg *config.Config, log logging.Logger) (*kb.Catalog, error) {
	sats, err := cfg.LoadSatellites(log)
	if err != nil {
		return nil, err
	}
	catalog := kb.NewCatalog()
	for _, s := range sats {
		if err := catalog.Add(s); err != nil {
			log.Warn(context.Background(), "skipping satellite", logging.String("id", s.ID), logging.Err(err))
		}
	}
	if catalog.Len() == 0 {
		return nil, errors.New("scenario has no usable satellites")
	}
	return catalog, nil
}

func writeJSON(w io.Writer, passes []model.Pass) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(passes)
}

func writeTable(w io.Writer, passes []model.Pass) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SATELLITE\tTARGET\tSTART\tEND\tDURATION\tSIDE SWING\tPITCH")
	for _, p := range passes {
		pitch := "-"
		if p.Pitch != nil {
			pitch = fmt.Sprintf("%.2f", *p.Pitch)
		}
		end := p.End.Format(model.RecordTimeLayout)
		if p.Truncated {
			end += "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%.2f\t%s\n",
			p.SatelliteName, p.TargetName,
			p.Start.Format(model.RecordTimeLayout), end,
			p.Duration(), p.SideSwingAngle, pitch)
	}
	return tw.Flush()
}
