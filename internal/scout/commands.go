// Package scout implements the dinger command line: offline queries over a
// local dataset, synthetic data generation and digest load runs.
package scout

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/dinger/internal/adapters/source"
	"github.com/okian/dinger/internal/domain/dataset"
	"github.com/okian/dinger/internal/domain/media"
	"github.com/okian/dinger/internal/domain/profile"
	"github.com/okian/dinger/internal/domain/similarity"
	"github.com/okian/dinger/internal/domain/types"
	"github.com/okian/dinger/pkg/logger"
)

const (
	defaultDataPath = "data/homeruns.csv"
	defaultPlayers  = 20
	defaultEvents   = 200
	defaultJobs     = 100
)

type rootOptions struct {
	data     string
	logLevel string
	timeout  time.Duration
}

// NewRootCommand builds the scout command tree. Tables go to out; logs go
// to stderr.
func NewRootCommand(out io.Writer) *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "scout",
		Short:         "Explore home run datasets and exercise a dinger service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(logger.WithWriter(cmd.ErrOrStderr())); err != nil {
				return err
			}
			return logger.SetLevelString(opts.logLevel)
		},
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&opts.data, "data", defaultDataPath, "dataset file path or http(s) URL")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "dataset fetch timeout")

	root.AddCommand(
		newProfileCmd(opts),
		newSimilarCmd(opts),
		newMediaCmd(opts),
		newGenerateCmd(),
		newLoadCmd(opts),
	)
	return root
}

func (o *rootOptions) load(ctx context.Context) (*dataset.Dataset, error) {
	if o.data == "" {
		return nil, ErrNoData
	}
	ds, err := source.New(source.WithTimeout(o.timeout)).Load(ctx, o.data)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	return ds, nil
}

func newProfileCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "profile <name>",
		Short: "Show a player's average metrics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}
			PrintProfile(cmd.OutOrStdout(), types.FromProfile(profile.ForDataset(args[0], ds)))
			return nil
		},
	}
}

func newSimilarCmd(opts *rootOptions) *cobra.Command {
	var top int
	cmd := &cobra.Command{
		Use:   "similar <name>",
		Short: "Rank the players closest to a player",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if top <= 0 {
				return fmt.Errorf("--top: %w", ErrInvalidCount)
			}
			ds, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}
			target := profile.ForDataset(args[0], ds)
			scores := similarity.NewRanker(similarity.WithLogger(logger.Named("similarity"))).
				Rank(cmd.Context(), &target, ds, top)
			PrintNeighbors(cmd.OutOrStdout(), types.FromScores(scores))
			return nil
		},
	}
	cmd.Flags().IntVar(&top, "top", similarity.DefaultTopN, "number of players to show")
	return cmd
}

func newMediaCmd(opts *rootOptions) *cobra.Command {
	var (
		random bool
		seed   int64
	)
	cmd := &cobra.Command{
		Use:   "media <name>",
		Short: "List a player's clips, or pick one at random",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}
			name := args[0]
			if !random {
				PrintClips(cmd.OutOrStdout(), types.MediaList{Player: name, Clips: media.Media(name, ds)})
				return nil
			}
			var selOpts []media.Option
			if cmd.Flags().Changed("seed") {
				selOpts = append(selOpts, media.WithSeed(seed))
			}
			clip, ok := media.NewSelector(selOpts...).Pick(name, ds)
			if !ok {
				return fmt.Errorf("no clips for %q", name)
			}
			fmt.Fprintln(cmd.OutOrStdout(), clip)
			return nil
		},
	}
	cmd.Flags().BoolVar(&random, "random", false, "print one random clip")
	cmd.Flags().Int64Var(&seed, "seed", 0, "seed for --random")
	return cmd
}

func newGenerateCmd() *cobra.Command {
	var (
		cfg GenerateConfig
		out string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a synthetic home run dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}
			return Generate(w, cfg)
		},
	}
	cmd.Flags().IntVar(&cfg.Players, "players", defaultPlayers, "number of players")
	cmd.Flags().IntVar(&cfg.Events, "events", defaultEvents, "number of home runs")
	cmd.Flags().Int64Var(&cfg.Seed, "seed", 1, "random seed")
	cmd.Flags().StringVar(&out, "out", "", "output file (default stdout)")
	return cmd
}

func newLoadCmd(opts *rootOptions) *cobra.Command {
	cfg := LoadConfig{}
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Submit digest jobs to a running service and wait for them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ds, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}
			stats, err := Load(cmd.Context(), cfg, ds.Names())
			if stats.Submitted > 0 {
				PrintLoadStats(cmd.OutOrStdout(), stats)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&cfg.BaseURL, "url", "http://localhost:8080", "service base URL")
	cmd.Flags().IntVar(&cfg.Jobs, "jobs", defaultJobs, "number of digest jobs")
	cmd.Flags().IntVar(&cfg.Workers, "workers", defaultLoadWorkers, "concurrent requests")
	cmd.Flags().IntVar(&cfg.TopN, "top", 0, "top_n per digest (0 uses the service default)")
	cmd.Flags().BoolVar(&cfg.Resubmit, "resubmit", false, "post every job twice to exercise deduplication")
	cmd.Flags().DurationVar(&cfg.WaitFor, "wait", defaultWaitFor, "how long to wait for digests to settle")
	return cmd
}
