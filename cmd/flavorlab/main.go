package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	humanize "github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"flavorlab/internal/bootstrap"
	exploredto "flavorlab/internal/modules/explore/dto"
	pairingdto "flavorlab/internal/modules/pairing/dto"
	"flavorlab/internal/platform/config"
	"flavorlab/internal/platform/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type globalFlags struct {
	configPath string
	artifact   string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "flavorlab",
		Short:         "Explore ingredient pairings",
		Version:       bootstrap.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&flags.artifact, "artifact", "", "reduced graph artifact (.json or .db)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "trace|debug|info|warn|error|off")

	root.AddCommand(newReduceCmd(flags))
	root.AddCommand(newSearchCmd(flags))
	root.AddCommand(newPairingsCmd(flags))
	root.AddCommand(newStatsCmd(flags))
	root.AddCommand(newWalkCmd(flags))
	root.AddCommand(newExploreCmd(flags))
	root.AddCommand(newServeCmd(flags))
	root.AddCommand(newMCPCmd(flags))
	return root
}

func loadConfig(flags *globalFlags, override func(*config.Config)) (config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if flags.artifact != "" {
		cfg.ArtifactPath = flags.artifact
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if override != nil {
		override(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// loadApp builds the application. Logs go to logOut unless the config names
// a file; a nil logOut with no file discards them.
func loadApp(cfg config.Config, logOut io.Writer) (*bootstrap.App, func(), error) {
	logger, closeLog, err := logging.New(cfg.Log, logOut)
	if err != nil {
		return nil, nil, err
	}
	app, err := bootstrap.New(cfg, logger)
	if err != nil {
		_ = closeLog()
		return nil, nil, err
	}
	cleanup := func() {
		if err := app.Close(); err != nil {
			logger.Warn("shutdown", "error", err)
		}
		_ = closeLog()
	}
	return app, cleanup, nil
}

// loadGraphApp is loadApp plus a loaded artifact.
func loadGraphApp(ctx context.Context, flags *globalFlags, logOut io.Writer, override func(*config.Config)) (*bootstrap.App, func(), error) {
	cfg, err := loadConfig(flags, override)
	if err != nil {
		return nil, nil, err
	}
	app, cleanup, err := loadApp(cfg, logOut)
	if err != nil {
		return nil, nil, err
	}
	if err := app.LoadGraph(ctx); err != nil {
		cleanup()
		return nil, nil, err
	}
	return app, cleanup, nil
}

func newReduceCmd(flags *globalFlags) *cobra.Command {
	var (
		k        int
		nodes    string
		edges    string
		edgeType string
		allNodes bool
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "reduce",
		Short: "Reduce the pairing tables to the top-k artifact",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags, func(c *config.Config) {
				if k > 0 {
					c.Reduce.K = k
				}
				if nodes != "" {
					c.Reduce.NodesCSV = nodes
				}
				if edges != "" {
					c.Reduce.EdgesCSV = edges
				}
				if cmd.Flags().Changed("edge-type") {
					c.Reduce.EdgeType = edgeType
				}
				if allNodes {
					c.Reduce.HubOnly = false
				}
			})
			if err != nil {
				return err
			}
			app, cleanup, err := loadApp(cfg, os.Stderr)
			if err != nil {
				return err
			}
			defer cleanup()

			out, err := app.PairingCLI.Reduce(cmd.Context(), cfg.Reduce.K)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), out)
			}
			printReduceSummary(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().IntVar(&k, "k", 0, "neighbors kept per ingredient (default from config)")
	cmd.Flags().StringVar(&nodes, "nodes", "", "nodes CSV path")
	cmd.Flags().StringVar(&edges, "edges", "", "edges CSV path")
	cmd.Flags().StringVar(&edgeType, "edge-type", "", "keep only edges of this type; empty keeps all")
	cmd.Flags().BoolVar(&allNodes, "all-nodes", false, "include non-hub ingredients")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")
	return cmd
}

func printReduceSummary(w io.Writer, out pairingdto.ReduceOutput) {
	size := "unknown size"
	if info, err := os.Stat(out.ArtifactPath); err == nil {
		size = humanize.Bytes(uint64(info.Size()))
	}
	_, _ = fmt.Fprintf(w, "wrote %s (%s) at %s\n", out.ArtifactPath, size, out.ReducedAt.Format(time.RFC3339))
	_, _ = fmt.Fprintf(w, "ingredients: %d (skipped %d)\n", out.Nodes, out.SkippedNodes)
	_, _ = fmt.Fprintf(w, "edges: %d read, %d pairs kept at k=%d, %d duplicates\n", out.Edges, out.Accepted, out.K, out.Duplicates)
	if out.SkippedEdges == 0 {
		return
	}
	_, _ = fmt.Fprintf(w, "skipped edges: %d (%d malformed, %d invalid score)\n", out.SkippedEdges, out.Malformed, out.InvalidScore)
	for _, ex := range out.Examples {
		_, _ = fmt.Fprintf(w, "  - %s\n", ex)
	}
}

func newSearchCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Find ingredients by name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, cleanup, err := loadGraphApp(cmd.Context(), flags, os.Stderr, nil)
			if err != nil {
				return err
			}
			defer cleanup()
			results, err := app.GraphCLI.Search(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if len(results) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no matches")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, r := range results {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", r.ID, r.Name, r.Category)
			}
			return tw.Flush()
		},
	}
}

func newPairingsCmd(flags *globalFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "pairings <ingredient>",
		Short: "Show the strongest pairings of an ingredient (id or name)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, cleanup, err := loadGraphApp(cmd.Context(), flags, os.Stderr, nil)
			if err != nil {
				return err
			}
			defer cleanup()
			out, err := app.GraphCLI.Pairings(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), out)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s (%s), top %d:\n", out.Ingredient.Name, out.Ingredient.ID, out.K)
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for i, p := range out.Pairings {
				_, _ = fmt.Fprintf(tw, "%d.\t%s\t%.4f\n", i+1, p.Ingredient.Name, p.Score)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func newStatsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the loaded artifact",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, cleanup, err := loadGraphApp(cmd.Context(), flags, os.Stderr, nil)
			if err != nil {
				return err
			}
			defer cleanup()
			s, err := app.GraphCLI.Stats(cmd.Context())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "artifact: %s\ningredients: %d\nk: %d\n", app.Config.ArtifactPath, s.Ingredients, s.K)
			return nil
		},
	}
}

func newWalkCmd(flags *globalFlags) *cobra.Command {
	var (
		k      int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "walk <step>...",
		Short: "Run a scripted exploration; each step is a query or \"reset\"",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, cleanup, err := loadGraphApp(cmd.Context(), flags, os.Stderr, func(c *config.Config) {
				if k > 0 {
					c.Explore.K = k
				}
			})
			if err != nil {
				return err
			}
			defer cleanup()
			explorer, err := app.StartExplorer(cmd.Context())
			if err != nil {
				return err
			}
			state, misses, err := explorer.Walk(cmd.Context(), args)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), struct {
					exploredto.StateOutput
					Misses []string `json:"misses,omitempty"`
				}{state, misses})
			}
			printWalk(cmd.OutOrStdout(), state, misses)
			return nil
		},
	}
	cmd.Flags().IntVar(&k, "k", 0, "pairings revealed per selection (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the final state as JSON")
	return cmd
}

func printWalk(w io.Writer, state exploredto.StateOutput, misses []string) {
	labels := make(map[string]string, len(state.Visible))
	for _, v := range state.Visible {
		labels[v.ID] = v.Label
	}
	name := func(id string) string {
		if l, ok := labels[id]; ok {
			return l
		}
		return id
	}
	for _, m := range misses {
		_, _ = fmt.Fprintf(w, "no match: %s\n", m)
	}
	trail := make([]string, len(state.Trail))
	for i, id := range state.Trail {
		trail[i] = name(id)
	}
	_, _ = fmt.Fprintf(w, "trail: %s\n", strings.Join(trail, " -> "))
	_, _ = fmt.Fprintf(w, "visible: %d\n", len(state.Visible))
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, v := range state.Visible {
		_, _ = fmt.Fprintf(tw, "  %s\t%s\t%.2f\n", v.Label, v.State, v.Opacity)
	}
	_ = tw.Flush()
	_, _ = fmt.Fprintf(w, "edges: %d\n", len(state.Edges))
	for _, e := range state.Edges {
		_, _ = fmt.Fprintf(w, "  %s - %s (%.4f)\n", name(e.A), name(e.B), e.Weight)
	}
}

func newExploreCmd(flags *globalFlags) *cobra.Command {
	var plugin string
	cmd := &cobra.Command{
		Use:   "explore",
		Short: "Run the interactive explorer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			// The terminal belongs to the UI; logs only go to a configured file.
			app, cleanup, err := loadGraphApp(ctx, flags, nil, func(c *config.Config) {
				if plugin != "" {
					c.Explore.RenderPlugin = plugin
				}
			})
			if err != nil {
				return err
			}
			defer cleanup()
			return bootstrap.RunTUI(ctx, app)
		},
	}
	cmd.Flags().StringVar(&plugin, "render-plugin", "", "render plugin binary fed alongside the terminal canvas")
	return cmd
}

func newServeCmd(flags *globalFlags) *cobra.Command {
	var (
		addr   string
		static string
		watch  bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web client, the artifact and the JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			app, cleanup, err := loadGraphApp(ctx, flags, os.Stderr, func(c *config.Config) {
				if addr != "" {
					c.Server.Addr = addr
				}
				if cmd.Flags().Changed("static") {
					c.Server.StaticDir = static
				}
				if watch {
					c.Server.Watch = true
				}
			})
			if err != nil {
				return err
			}
			defer cleanup()

			srv := &http.Server{
				Addr:              app.Config.Server.Addr,
				Handler:           app.HTTPHandler(),
				ReadHeaderTimeout: 5 * time.Second,
			}
			logger := app.Logger.Named("server")
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				logger.Info("listening", "addr", srv.Addr, "static", app.Config.Server.StaticDir)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})
			if app.Config.Server.Watch {
				g.Go(func() error {
					return app.WatchGraph(gctx)
				})
			}
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringVar(&static, "static", "", "directory served at /; empty disables")
	cmd.Flags().BoolVar(&watch, "watch", false, "reload the artifact when it changes")
	return cmd
}

func newMCPCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve ingredient search over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			// stdout carries the protocol.
			app, cleanup, err := loadGraphApp(ctx, flags, os.Stderr, nil)
			if err != nil {
				return err
			}
			defer cleanup()
			return app.MCPHandler().Run(ctx)
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
