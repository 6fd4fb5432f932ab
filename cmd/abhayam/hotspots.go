package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/esh22nika/Abhayam-Women-Safety/internal/store"
)

// HotspotHeader is the header row of the hotspot report.
var HotspotHeader = []string{"Location", "Action Detected", "Count"}

// runHotspots writes the locations with more violence alerts than -min.
func runHotspots(args []string) int {
	fs := flag.NewFlagSet("abhayam hotspots", flag.ContinueOnError)
	configPath := fs.String("config", defaultConfigPath, "Path to configuration file")
	minCount := fs.Int("min", 5, "Report locations with more than this many violence alerts")
	out := fs.String("out", "hotspot.csv", "Output CSV file, - for stdout")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		setupLogger("text", false)
		slog.Error("failed to load configuration", "error", err)
		return 1
	}
	setupLogger(cfg.LogFormat, cfg.Debug)

	st, err := store.New(cfg.Store.Path)
	if err != nil {
		slog.Error("failed to open store", "path", cfg.Store.Path, "error", err)
		return 1
	}
	defer st.Close()

	spots, err := st.Alerts().Hotspots(*minCount)
	if err != nil {
		slog.Error("failed to compute hotspots", "error", err)
		return 1
	}

	var w io.Writer = os.Stdout
	if *out != "-" {
		f, err := os.Create(*out)
		if err != nil {
			slog.Error("failed to create report", "path", *out, "error", err)
			return 1
		}
		defer f.Close()
		w = f
	}

	if err := writeHotspots(w, spots); err != nil {
		slog.Error("failed to write report", "error", err)
		return 1
	}

	if *out != "-" {
		fmt.Printf("Filtered data saved to '%s' (%d locations)\n", *out, len(spots))
	}
	return 0
}

// writeHotspots writes spots as CSV with HotspotHeader.
func writeHotspots(w io.Writer, spots []store.Hotspot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(HotspotHeader); err != nil {
		return err
	}
	for _, s := range spots {
		if err := cw.Write([]string{s.Location, s.Action, strconv.Itoa(s.Count)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
