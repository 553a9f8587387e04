package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"hirez-stats/internal/config"
	"hirez-stats/internal/constants"
	"hirez-stats/internal/logger"
	"hirez-stats/pkg/hirez"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// cli holds the state shared by the sub-commands of one invocation.
type cli struct {
	verbose bool
	client  *hirez.Client
}

func newRootCmd() *cobra.Command {
	app := &cli{}

	root := &cobra.Command{
		Use:          "hirez",
		Short:        "Query the Hi-Rez statistics API",
		Version:      hirez.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.connect()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app.client != nil {
				app.client.Close()
			}
		},
	}
	root.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "log vendor calls to stderr")

	root.AddCommand(
		app.simpleCmd("ping", "Check that the endpoint is reachable", func(ctx context.Context, c *hirez.Client) (any, error) {
			msg, err := c.Ping(ctx)
			return map[string]string{"message": msg}, err
		}),
		app.simpleCmd("session", "Create a session and report whether the vendor accepts it", func(ctx context.Context, c *hirez.Client) (any, error) {
			ok, err := c.TestSession(ctx)
			if err != nil {
				return nil, err
			}
			return map[string]any{"accepted": ok, "session": c.Session()}, nil
		}),
		app.simpleCmd("usage", "Show the developer's usage as counted by the vendor", func(ctx context.Context, c *hirez.Client) (any, error) {
			limits, err := c.GetDataUsed(ctx)
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"vendor":        limits,
				"requests_left": limits.RequestsLeft(),
				"sessions_left": limits.SessionsLeft(),
				"local":         c.Usage(),
			}, nil
		}),
		app.simpleCmd("gods", "List gods", func(ctx context.Context, c *hirez.Client) (any, error) {
			return c.GetGods(ctx)
		}),
		app.simpleCmd("champions", "List champions", func(ctx context.Context, c *hirez.Client) (any, error) {
			return c.GetChampions(ctx)
		}),
		app.playerCmd("player", "Show a player's profile", func(ctx context.Context, c *hirez.Client, player string) (any, error) {
			p, err := c.GetPlayer(ctx, player)
			if err == nil && p == nil {
				return nil, fmt.Errorf("player %q not found", player)
			}
			return p, err
		}),
		app.playerCmd("friends", "List a player's friends", func(ctx context.Context, c *hirez.Client, player string) (any, error) {
			return c.GetFriends(ctx, player)
		}),
		app.playerCmd("matches", "List a player's recent matches", func(ctx context.Context, c *hirez.Client, player string) (any, error) {
			return c.GetMatchHistory(ctx, player)
		}),
		app.playerCmd("godranks", "List a player's god ranks", func(ctx context.Context, c *hirez.Client, player string) (any, error) {
			return c.GetGodRanks(ctx, player)
		}),
		app.playerCmd("championranks", "List a player's champion ranks", func(ctx context.Context, c *hirez.Client, player string) (any, error) {
			return c.GetChampionRanks(ctx, player)
		}),
		app.matchCmd(),
	)
	return root
}

func (a *cli) connect() error {
	level := zerolog.WarnLevel
	if a.verbose {
		level = zerolog.DebugLevel
	}
	log := logger.WithWriter(zerolog.ConsoleWriter{Out: os.Stderr}, level)

	cfg, err := config.Load(log)
	if err != nil {
		return err
	}
	a.client, err = hirez.NewClient(cfg.ClientConfig(log))
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	return nil
}

type queryFunc func(ctx context.Context, c *hirez.Client) (any, error)

type playerQueryFunc func(ctx context.Context, c *hirez.Client, player string) (any, error)

func (a *cli) simpleCmd(use, short string, query queryFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context) (any, error) { return query(ctx, a.client) })
		},
	}
}

func (a *cli) playerCmd(use, short string, query playerQueryFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <player>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context) (any, error) { return query(ctx, a.client, args[0]) })
		},
	}
}

func (a *cli) matchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "match <id>...",
		Short: "Show the participants of one or more matches",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseMatchIDs(args)
			if err != nil {
				return err
			}
			return a.run(cmd, func(ctx context.Context) (any, error) {
				if len(ids) == 1 {
					return a.client.GetMatchDetails(ctx, ids[0])
				}
				return a.client.GetMatchDetailsBatch(ctx, ids...)
			})
		},
	}
}

func parseMatchIDs(args []string) ([]int64, error) {
	ids := make([]int64, len(args))
	for i, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid match id %q", arg)
		}
		ids[i] = id
	}
	return ids, nil
}

func (a *cli) run(cmd *cobra.Command, query func(ctx context.Context) (any, error)) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), constants.RequestTimeout)
	defer cancel()

	result, err := query(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
