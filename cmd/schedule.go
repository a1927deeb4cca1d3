package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/ukydev/mecsentinel/internal/config"
	"github.com/ukydev/mecsentinel/internal/maintenance"
	"github.com/zoobzio/clockz"
	"gopkg.in/yaml.v3"
)

// vehicleFile is the input of the schedule command.
type vehicleFile struct {
	Vehicle maintenance.Vehicle `yaml:"vehicle"`
	History maintenance.History `yaml:"history"`
}

// scheduleReport is the --json output of the schedule command.
type scheduleReport struct {
	Items         []maintenance.Item `json:"items"`
	OverallHealth maintenance.Health `json:"overall_health"`
	MostUrgent    *maintenance.Item  `json:"most_urgent"`
}

type scheduleOptions struct {
	now        string
	configPath string
	asJSON     bool
	clock      clockz.Clock
}

func newScheduleCmd() *cobra.Command {
	opts := &scheduleOptions{clock: clockz.RealClock}
	cmd := &cobra.Command{
		Use:   "schedule <vehicle.yaml>",
		Short: "Print the maintenance schedule of a vehicle file",
		Long: `Evaluate a vehicle and its service history and print every
maintenance item, followed by the overall health and the most urgent one.

The file holds a "vehicle" section (type, model, year, current_km,
usage_type) and an optional "history" map keyed by category with the
date and km of the last service.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchedule(cmd.OutOrStdout(), args[0], opts)
		},
	}
	cmd.Flags().StringVar(&opts.now, "now", "", "evaluation time (RFC3339 or YYYY-MM-DD), defaults to the current time")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "scheduler config YAML with thresholds and intervals")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the items, overall health and most urgent item as JSON")
	return cmd
}

func runSchedule(out io.Writer, path string, opts *scheduleOptions) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read vehicle file: %w", err)
	}
	var in vehicleFile
	if err := yaml.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("failed to parse vehicle file: %w", err)
	}
	usage, err := maintenance.ParseUsageProfile(string(in.Vehicle.Usage))
	if err != nil {
		return err
	}
	in.Vehicle.Usage = usage

	now, err := parseNow(opts.now, opts.clock)
	if err != nil {
		return err
	}
	cfg, err := config.LoadScheduler(opts.configPath)
	if err != nil {
		return err
	}

	sched := maintenance.NewScheduler(cfg)
	items := sched.BuildItems(now, in.Vehicle, in.History)
	urgent, ok := sched.SelectMostUrgent(items)
	health := maintenance.OverallHealth(items)

	if opts.asJSON {
		report := scheduleReport{Items: items, OverallHealth: health}
		if ok {
			report.MostUrgent = &urgent
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ITEM\tSTATUS\tDAYS LEFT\tKM LEFT\tNEXT DATE\tNEXT KM")
	for _, it := range items {
		km, nextKm := "-", "-"
		if !it.Interval.TimeOnly() {
			km = strconv.Itoa(it.DistanceRemaining)
			nextKm = strconv.Itoa(it.NextDistance)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n",
			it.Name, it.Status, it.DaysRemaining, km, it.NextDate.Format(time.DateOnly), nextKm)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Overall health: %s\n", health)
	if ok {
		fmt.Fprintf(out, "Most urgent: %s (%s)\n", urgent.Name, urgent.Status)
	}
	return nil
}

func parseNow(s string, clock clockz.Clock) (time.Time, error) {
	if s == "" {
		return clock.Now().UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --now %q: use RFC3339 or YYYY-MM-DD", s)
	}
	return t, nil
}
