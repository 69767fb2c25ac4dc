package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sweeney/drive-timer/internal/config"
	"github.com/sweeney/drive-timer/internal/logic"
	"github.com/sweeney/drive-timer/internal/persist"
)

var stateOutput string

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Print the persisted timer state",
	Long: `Print the record the daemon saved at its last shutdown or checkpoint.
Stop the daemon first when using bolt storage; the database is locked while it runs.`,
	Example: `  drive-timer state
  drive-timer -c /etc/drive-timer/drive-timer.yaml state --output json`,
	Args: cobra.NoArgs,
	RunE: runState,
}

func init() {
	stateCmd.Flags().StringVarP(&stateOutput, "output", "o", "text", "Output format: text, json or yaml")
	rootCmd.AddCommand(stateCmd)
}

// StateOutput is the persisted record as shown by the state command.
type StateOutput struct {
	Found          bool        `json:"found" yaml:"found"`
	Jurisdiction   string      `json:"jurisdiction" yaml:"jurisdiction"`
	CompactDisplay bool        `json:"compact_display" yaml:"compact_display"`
	Drive          TimerOutput `json:"drive" yaml:"drive"`
	Rest           TimerOutput `json:"rest" yaml:"rest"`
}

// TimerOutput is one persisted timer.
type TimerOutput struct {
	Running          bool    `json:"running" yaml:"running"`
	ElapsedSeconds   float64 `json:"elapsed_seconds" yaml:"elapsed_seconds"`
	EpochStart       float64 `json:"epoch_start" yaml:"epoch_start"`
	PauseInstant     float64 `json:"pause_instant" yaml:"pause_instant"`
	Display          string  `json:"display" yaml:"display"`
	RemainingSeconds int     `json:"remaining_seconds" yaml:"remaining_seconds"`
}

func runState(cmd *cobra.Command, args []string) error {
	switch stateOutput {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("unknown output format %q", stateOutput)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	store, err := openStorage(cfg)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer store.Close()

	s, found := persist.NewPersister(store, zerolog.Nop()).Load(context.Background())
	return writeState(cmd.OutOrStdout(), buildStateOutput(s, found), stateOutput)
}

func buildStateOutput(s logic.State, found bool) StateOutput {
	rules := logic.RulesFor(s.Settings.Jurisdiction)
	compact := s.Settings.Compact
	return StateOutput{
		Found:          found,
		Jurisdiction:   s.Settings.Jurisdiction.String(),
		CompactDisplay: compact,
		Drive:          timerOutput(s.Drive, rules.DriveLimit, logic.FormatDrive(s.Drive.Seconds(), compact)),
		Rest:           timerOutput(s.Rest, rules.RestLimit, logic.FormatRest(s.Rest.Seconds(), compact)),
	}
}

func timerOutput(t logic.TimerState, limit int, display string) TimerOutput {
	remaining := limit - t.Seconds()
	if remaining < 0 {
		remaining = 0
	}
	return TimerOutput{
		Running:          t.Running,
		ElapsedSeconds:   t.Elapsed,
		EpochStart:       t.EpochStart,
		PauseInstant:     t.PauseInstant,
		Display:          display,
		RemainingSeconds: remaining,
	}
}

func writeState(w io.Writer, out StateOutput, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return err
		}
		return enc.Close()
	}

	if !out.Found {
		yellow := color.New(color.FgYellow, color.Bold)
		yellow.Fprintln(w, "No saved state (first run)")
		return nil
	}

	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen)
	dim := color.New(color.Faint)

	cyan.Fprintf(w, "Jurisdiction: %s", out.Jurisdiction)
	if out.CompactDisplay {
		fmt.Fprint(w, " (compact)")
	}
	fmt.Fprintln(w)

	for _, t := range []struct {
		name string
		t    TimerOutput
	}{{"Drive", out.Drive}, {"Rest", out.Rest}} {
		state := dim.Sprint("stopped")
		if t.t.Running {
			state = green.Sprint("running")
		}
		fmt.Fprintf(w, "%-6s %10s  %s, %ds left\n", t.name+":", t.t.Display, state, t.t.RemainingSeconds)
	}
	return nil
}
