package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/sznuper/checkin/internal/config"
	"github.com/sznuper/checkin/internal/notify"
	"github.com/sznuper/checkin/internal/runner"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the check-in once for every account",
	Long:  "Runs login, check-in and balance for each configured account in order, then sends one summary. Use --dry-run to skip sending notifications.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		asJSON, _ := cmd.Flags().GetBool("json")
		logger := setupLogger()

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		report, err := runOnce(ctx, cfg, dryRun, logger)
		stop()
		if err != nil {
			return err
		}

		if asJSON {
			if err := writeJSON(os.Stdout, report); err != nil {
				return err
			}
		} else {
			printReport(os.Stdout, report)
		}

		if report.Failed() > 0 {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().Bool("dry-run", false, "run the accounts but only validate notification services")
	runCmd.Flags().Bool("json", false, "print the report as JSON")
	rootCmd.AddCommand(runCmd)
}

// runOnce runs every account in cfg with a real browser.
func runOnce(ctx context.Context, cfg *config.Config, dryRun bool, logger *slog.Logger) (runner.Report, error) {
	creds, err := cfg.Credentials()
	if err != nil {
		return runner.Report{}, err
	}

	r := runner.New(cfg,
		runner.NewLauncher(cfg, logger),
		runner.NewNotifier(cfg, dryRun, logger),
		dryRun,
		logger,
	)
	return r.RunAll(ctx, creds), nil
}

var (
	okStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	failStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	quoteStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).PaddingLeft(4)
)

func printReport(w io.Writer, report runner.Report) {
	for _, res := range report.Results {
		printResult(w, res)
	}

	if report.DryRun && report.Notification != "" {
		fmt.Fprintf(w, "%s\n%s\n", labelStyle.Render("Rendered:"), quoteStyle.Render(report.Notification))
	}
	if len(report.Notified) > 0 {
		label := "Notified:"
		if report.DryRun {
			label = "Would notify:"
		}
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render(label), strings.Join(report.Notified, ", "))
	}
	if report.NotifyErr != nil {
		fmt.Fprintf(w, "%s %s\n", failStyle.Render("Notify error:"), report.NotifyErr)
	}
}

func printResult(w io.Writer, r runner.AccountResult) {
	if !r.Succeeded {
		fmt.Fprintf(w, "%s %s\n", failStyle.Render("✗"), notify.Mask(r.Identifier))
		fmt.Fprintf(w, "  %s %s\n", labelStyle.Render(fmt.Sprintf("Error (%s):", r.ErrStage)), r.Message)
		return
	}

	fmt.Fprintf(w, "%s %s\n", okStyle.Render("✓"), notify.Mask(r.Identifier))
	fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("Result:"), r.Message)
	if r.Strategy != "" {
		fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("Via:"), r.Strategy)
	}
	fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("Balance:"), r.Balance)
	fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("Took:"), r.Duration.Round(time.Millisecond))
}

type jsonResult struct {
	Account    string `json:"account"`
	Succeeded  bool   `json:"succeeded"`
	State      string `json:"state"`
	Strategy   string `json:"strategy,omitempty"`
	Message    string `json:"message"`
	Balance    string `json:"balance"`
	ErrStage   string `json:"err_stage,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

type jsonReport struct {
	Results     []jsonResult `json:"results"`
	Notified    []string     `json:"notified,omitempty"`
	NotifyError string       `json:"notify_error,omitempty"`
	DryRun      bool         `json:"dry_run"`
}

// writeJSON prints report with masked identifiers only.
func writeJSON(w io.Writer, report runner.Report) error {
	out := jsonReport{
		Results:  make([]jsonResult, len(report.Results)),
		Notified: report.Notified,
		DryRun:   report.DryRun,
	}
	for i, r := range report.Results {
		out.Results[i] = jsonResult{
			Account:    notify.Mask(r.Identifier),
			Succeeded:  r.Succeeded,
			State:      r.State.String(),
			Strategy:   r.Strategy,
			Message:    r.Message,
			Balance:    r.Balance,
			ErrStage:   r.ErrStage,
			DurationMS: r.Duration.Milliseconds(),
		}
	}
	if report.NotifyErr != nil {
		out.NotifyError = report.NotifyErr.Error()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(out)
}
