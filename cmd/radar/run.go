package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/competitive-radar/backend/internal/engagement"
	"github.com/competitive-radar/backend/internal/llm"
	"github.com/competitive-radar/backend/internal/pipeline"
	"github.com/competitive-radar/backend/internal/source"
	"github.com/competitive-radar/backend/internal/storage/file"
	"github.com/competitive-radar/backend/internal/storage/models"
	"github.com/competitive-radar/backend/internal/storage/sqlite"
	"github.com/competitive-radar/backend/pkg/config"
)

var (
	flagOffline   bool
	flagPersona   string
	flagDataDir   string
	flagOutput    string
	flagNoHistory bool
	flagQuiet     bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline once and print the digest",
	Long: `Load competitor updates from the data directory, run research, categorization,
prioritization and summarization, and write the Markdown digest.

With --offline (or pipeline.offline: true) the deterministic offline pipeline
is used and no API key is needed. In live mode a missing API key, an LLM outage
or an open circuit breaker yields the static fallback demo digest instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("offline") {
			cfg.Pipeline.Offline = flagOffline
		}
		if flagDataDir != "" {
			cfg.Pipeline.DataDir = flagDataDir
		}
		if flagOutput != "" {
			cfg.Pipeline.OutputPath = flagOutput
		}

		output := file.NewStore(cfg.Pipeline.OutputPath)
		deps := pipeline.Deps{
			Source: source.NewLoader(cfg.Pipeline.InputCandidates()),
			Output: output,
		}
		if !cfg.Pipeline.Offline {
			deps.Client = llm.NewClient(llmConfig(cfg.LLM))
		}
		if cfg.SQLite.Enabled && !flagNoHistory {
			db, err := openHistory(cfg.SQLite.Path)
			if err != nil {
				return err
			}
			defer db.Close()
			deps.History = db
		}

		orchestrator := pipeline.New(pipeline.Config{
			Offline: cfg.Pipeline.Offline,
			Persona: cfg.Pipeline.Persona,
		}, deps)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		var events []pipeline.StageEvent
		digest, err := orchestrator.RunFromSource(ctx, pipeline.RunOptions{
			Persona:  flagPersona,
			Progress: func(ev pipeline.StageEvent) { events = append(events, ev) },
		})
		if err != nil {
			return fmt.Errorf("running pipeline: %w", err)
		}

		out := cmd.OutOrStdout()
		if !flagQuiet {
			printSummary(out, events, digest, output.Path())
			printEngagement(out, engagement.Default().Next())
		}
		fmt.Fprintln(out, digest.Content)
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&flagOffline, "offline", false, "use the offline pipeline instead of the LLM")
	runCmd.Flags().StringVar(&flagPersona, "persona", "", "reader the digest is prepared for")
	runCmd.Flags().StringVar(&flagDataDir, "data-dir", "", "directory holding competitor_updates*.json")
	runCmd.Flags().StringVar(&flagOutput, "output", "", "path of the Markdown digest to write")
	runCmd.Flags().BoolVar(&flagNoHistory, "no-history", false, "do not record the run in the history database")
	runCmd.Flags().BoolVarP(&flagQuiet, "quiet", "q", false, "print only the digest")
}

func llmConfig(c config.LLMConfig) llm.Config {
	return llm.Config{
		Name:         "pipeline",
		APIKey:       c.APIKey,
		BaseURL:      c.BaseURL,
		Model:        c.Model,
		Temperature:  c.Temperature,
		MaxTokens:    c.MaxTokens,
		Timeout:      c.Timeout(),
		MaxAttempts:  c.MaxAttempts,
		BreakerTrips: c.BreakerTrips,
	}
}

func openHistory(path string) (*sqlite.Client, error) {
	db, err := sqlite.NewClient(path)
	if err != nil {
		return nil, fmt.Errorf("opening history: %w", err)
	}
	if err := db.InitSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing history: %w", err)
	}
	return db, nil
}

// printSummary reports what each stage did, one line per finished stage.
func printSummary(w io.Writer, events []pipeline.StageEvent, digest *models.Digest, outputPath string) {
	fmt.Fprintf(w, "CompetitiveRadar run %s (%s mode)\n", digest.ID, digest.Mode)
	for _, ev := range events {
		switch ev.Status {
		case pipeline.StatusFinished:
			switch ev.Stage {
			case pipeline.StagePersist:
				fmt.Fprintf(w, "  ✓ %-11s %s\n", ev.Stage, outputPath)
			case pipeline.StageFallback:
				fmt.Fprintf(w, "  ! %-11s %s\n", ev.Stage, ev.Message)
			default:
				fmt.Fprintf(w, "  ✓ %-11s %d records\n", ev.Stage, ev.Count)
			}
		case pipeline.StatusFailed:
			fmt.Fprintf(w, "  ✗ %-11s %s\n", ev.Stage, ev.Message)
		}
	}
	fmt.Fprintf(w, "  completed in %dms\n\n", digest.LatencyMS)
}

func printEngagement(w io.Writer, m models.EngagementMetrics) {
	fmt.Fprintln(w, "Engagement (simulated)")
	fmt.Fprintf(w, "  insights viewed:    %d%%\n", m.InsightsViewed)
	fmt.Fprintf(w, "  click-through rate: %.1f%%\n", m.ClickThroughRate)
	fmt.Fprintf(w, "  avg read time:      %s\n", m.AvgReadTime)
	fmt.Fprintf(w, "  action taken rate:  %.1f%%\n\n", m.ActionTakenRate)
}

