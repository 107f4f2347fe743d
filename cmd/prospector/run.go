package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"

	"github.com/copyleftdev/prospector/internal/logging"
	"github.com/copyleftdev/prospector/internal/prospect"
)

var (
	episodes   int
	mapSize    int
	budget     int
	peaks      int
	seed       int64
	jsonOutput bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Play prospecting episodes on generated fields",
	Long: `Generates random value fields and plays one episode on each, printing
the best cell found next to the true maximum of the field.`,
	RunE: runEpisodes,
}

func init() {
	runCmd.Flags().IntVar(&episodes, "episodes", 10, "Number of episodes")
	runCmd.Flags().IntVar(&mapSize, "size", prospect.DefaultMapSize, "Side length of each field")
	runCmd.Flags().IntVar(&budget, "budget", prospect.DefaultQueryBudget, "Queries per episode")
	runCmd.Flags().IntVar(&peaks, "peaks", 6, "Hills per generated field")
	runCmd.Flags().Int64Var(&seed, "seed", 1, "Seed of the first episode; episode i uses seed+i")
	runCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the summary as JSON")

	rootCmd.AddCommand(runCmd)
}

type episodeOptions struct {
	Episodes int
	Size     int
	Budget   int
	Peaks    int
	Seed     int64
}

type episodeReport struct {
	Seed       int64          `json:"seed"`
	Best       prospect.Coord `json:"best"`
	Value      int            `json:"value"`
	FieldMax   int            `json:"field_max"`
	FieldMaxAt prospect.Coord `json:"field_max_at"`
	Queries    int            `json:"queries"`
	Restarts   int            `json:"restarts"`
	Ratio      float64        `json:"ratio"`
}

type runSummary struct {
	Episodes  []episodeReport `json:"episodes"`
	MeanRatio float64         `json:"mean_ratio"`
	Elapsed   time.Duration   `json:"elapsed_ns"`
}

func runEpisodes(cmd *cobra.Command, args []string) error {
	summary, err := playEpisodes(episodeOptions{
		Episodes: episodes,
		Size:     mapSize,
		Budget:   budget,
		Peaks:    peaks,
		Seed:     seed,
	}, logger)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}
	printSummary(out, summary)
	return nil
}

// playEpisodes plays opts.Episodes independent episodes.
func playEpisodes(opts episodeOptions, logger *logging.Logger) (*runSummary, error) {
	if opts.Episodes < 1 || opts.Size < 2 || opts.Budget < 1 || opts.Peaks < 1 {
		return nil, fmt.Errorf("episodes, size, budget and peaks must be positive")
	}

	start := time.Now()
	summary := &runSummary{Episodes: make([]episodeReport, 0, opts.Episodes)}
	ratios := make([]float64, 0, opts.Episodes)

	for i := 0; i < opts.Episodes; i++ {
		episodeSeed := opts.Seed + int64(i)
		field := prospect.GenerateField(rand.New(rand.NewSource(episodeSeed)), opts.Size, opts.Peaks)
		plot := prospect.NewPlot(field, opts.Budget)

		cfg := prospect.BotConfig(opts.Size, opts.Budget)
		cfg.RandomSeed = episodeSeed

		episodeLogger := logger.WithField("episode", i+1)
		p := prospect.NewProspector(opts.Size, cfg, logging.NewZapLogger(episodeLogger))
		outcome, err := p.Prospect(plot)
		if err != nil {
			return nil, fmt.Errorf("episode %d: %w", i+1, err)
		}

		at, peak := field.Max()
		report := episodeReport{
			Seed:       episodeSeed,
			Best:       outcome.Best,
			Value:      outcome.Value,
			FieldMax:   peak,
			FieldMaxAt: at,
			Queries:    outcome.Queries,
			Restarts:   outcome.Restarts,
		}
		if peak > 0 {
			report.Ratio = float64(outcome.Value) / float64(peak)
		}
		summary.Episodes = append(summary.Episodes, report)
		ratios = append(ratios, report.Ratio)

		episodeLogger.Info("Episode finished", map[string]interface{}{
			"value":     report.Value,
			"field_max": report.FieldMax,
			"queries":   report.Queries,
		})
	}

	summary.MeanRatio = stat.Mean(ratios, nil)
	summary.Elapsed = time.Since(start)
	return summary, nil
}

func printSummary(w io.Writer, s *runSummary) {
	for i, e := range s.Episodes {
		fmt.Fprintf(w, "episode %3d  seed %-6d best %s=%-5d max %s=%-5d ratio %.3f  queries %d  restarts %d\n",
			i+1, e.Seed, e.Best, e.Value, e.FieldMaxAt, e.FieldMax, e.Ratio, e.Queries, e.Restarts)
	}
	fmt.Fprintf(w, "mean ratio %.3f over %d episodes in %s\n", s.MeanRatio, len(s.Episodes), s.Elapsed.Round(time.Millisecond))
}
