package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	hclog "github.com/hashicorp/go-hclog"

	exploreinadapter "flavorlab/internal/modules/explore/adapter/in"
	exploreoutadapter "flavorlab/internal/modules/explore/adapter/out"
	exploredomain "flavorlab/internal/modules/explore/domain"
	exploreservice "flavorlab/internal/modules/explore/service"
	exploreusecase "flavorlab/internal/modules/explore/usecase"
	graphinadapter "flavorlab/internal/modules/graph/adapter/in"
	graphoutadapter "flavorlab/internal/modules/graph/adapter/out"
	graphservice "flavorlab/internal/modules/graph/service"
	graphusecase "flavorlab/internal/modules/graph/usecase"
	pairinginadapter "flavorlab/internal/modules/pairing/adapter/in"
	pairingoutadapter "flavorlab/internal/modules/pairing/adapter/out"
	pairingservice "flavorlab/internal/modules/pairing/service"
	pairingusecase "flavorlab/internal/modules/pairing/usecase"
	"flavorlab/internal/platform/clock"
	"flavorlab/internal/platform/config"
	uiapp "flavorlab/internal/ui/app"
	exploreview "flavorlab/internal/ui/views/explore"
)

type App struct {
	Config     config.Config
	Logger     hclog.Logger
	PairingCLI pairinginadapter.CLIHandler
	GraphCLI   graphinadapter.CLIHandler

	graphSvc *graphservice.GraphService
	httpAPI  *graphinadapter.HTTPHandler
	mcpAPI   *graphinadapter.MCPHandler
	closers  []func() error
}

// New wires every module. Nothing is read from disk yet: the artifact is
// loaded by LoadGraph, and reduce only needs the CSV inputs.
func New(cfg config.Config, logger hclog.Logger) (*App, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	clk := clock.SystemClock{}

	store, err := pairingoutadapter.NewArtifactStore(cfg.ArtifactPath)
	if err != nil {
		return nil, fmt.Errorf("open artifact store: %w", err)
	}
	app := &App{Config: cfg, Logger: logger}
	if c, ok := store.(interface{ Close() error }); ok {
		app.closers = append(app.closers, c.Close)
	}

	source := pairingoutadapter.NewCSVEdgeSource(cfg.Reduce.NodesCSV, cfg.Reduce.EdgesCSV, cfg.Reduce.EdgeType, cfg.Reduce.HubOnly)
	reduceSvc := pairingservice.NewReduceService(source, store, logger.Named("reduce"))
	app.PairingCLI = pairinginadapter.NewCLIHandler(pairingusecase.NewInteractor(reduceSvc, clk))

	app.graphSvc = graphservice.NewGraphService(store, cfg.Search.MaxResults, clk, logger.Named("graph"))
	graphUC := graphusecase.NewInteractor(app.graphSvc)
	app.GraphCLI = graphinadapter.NewCLIHandler(graphUC)
	app.httpAPI = graphinadapter.NewHTTPHandler(graphUC, graphinadapter.HTTPOptions{
		StaticDir:      cfg.Server.StaticDir,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		SearchRPS:      cfg.Server.SearchRPS,
		SearchBurst:    cfg.Server.SearchBurst,
	}, nil, logger.Named("server"))
	app.mcpAPI = graphinadapter.NewMCPHandler(graphUC, Version)
	return app, nil
}

// Version is stamped at build time.
var Version = "dev"

func (a *App) LoadGraph(ctx context.Context) error {
	snap, err := a.graphSvc.Reload(ctx)
	if err != nil {
		return err
	}
	a.Logger.Debug("graph loaded", "ingredients", snap.Index.Len(), "k", snap.Index.K())
	return nil
}

// WatchGraph reloads the graph whenever the artifact file changes, until ctx
// is done.
func (a *App) WatchGraph(ctx context.Context) error {
	notifier := graphoutadapter.NewFileWatcher(a.Config.ArtifactPath, graphoutadapter.DefaultDebounce, a.Logger.Named("watch"))
	return a.graphSvc.Watch(ctx, notifier)
}

func (a *App) HTTPHandler() http.Handler {
	return a.httpAPI.Routes()
}

func (a *App) MCPHandler() *graphinadapter.MCPHandler {
	return a.mcpAPI
}

// StartExplorer builds an exploration runner over the loaded graph. Every
// renderer in extra receives the drawing commands, along with a debug log
// renderer and the configured render plugin.
func (a *App) StartExplorer(ctx context.Context, extra ...exploredomain.Renderer) (exploreinadapter.CLIHandler, error) {
	snap, err := a.graphSvc.Current()
	if err != nil {
		return exploreinadapter.CLIHandler{}, err
	}
	logger := a.Logger.Named("explore")

	renderers := exploreoutadapter.Fanout{exploreoutadapter.NewLogRenderer(logger.Named("render"))}
	renderers = append(renderers, extra...)
	if bin := a.Config.Explore.RenderPlugin; bin != "" {
		plugBin := exploreoutadapter.PluginBinary{Path: bin, SHA256: a.Config.Explore.RenderPluginSHA256}
		plug, err := exploreoutadapter.StartPluginRenderer(ctx, plugBin, physics(a.Config.Physics), exploreoutadapter.QueueOptions{}, logger)
		if err != nil {
			return exploreinadapter.CLIHandler{}, err
		}
		renderers = append(renderers, plug)
	}

	runner, err := exploreservice.NewRunner(exploreConfig(a.Config.Explore), snap.Index, snap.Resolver, renderers, clock.SystemClock{}, logger)
	if err != nil {
		_ = renderers.Close()
		return exploreinadapter.CLIHandler{}, err
	}
	// Runner first: closing it resets the engine, which still draws.
	a.closers = append(a.closers, renderers.Close, runner.Close)
	return exploreinadapter.NewCLIHandler(exploreusecase.NewInteractor(runner)), nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func RunTUI(ctx context.Context, app *App) error {
	canvas := exploreview.NewCanvasRenderer()
	explorer, err := app.StartExplorer(ctx, canvas)
	if err != nil {
		return err
	}
	model := uiapp.NewModel(explorer, app.GraphCLI)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	canvas.Attach(program.Send)
	_, err = program.Run()
	_ = canvas.Close()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func exploreConfig(c config.ExploreConfig) exploredomain.Config {
	return exploredomain.Config{
		K:               c.K,
		GraceDelay:      time.Duration(c.GraceDelayMS) * time.Millisecond,
		FadeDuration:    time.Duration(c.FadeDurationMS) * time.Millisecond,
		FadeSteps:       c.FadeSteps,
		MaxTrailDisplay: c.MaxTrailDisplay,
	}
}

func physics(c config.PhysicsConfig) exploredomain.Physics {
	return exploredomain.Physics{
		Solver:                  c.Solver,
		GravitationalConstant:   c.GravitationalConstant,
		SpringLength:            c.SpringLength,
		SpringConstant:          c.SpringConstant,
		Damping:                 c.Damping,
		StabilizationIterations: c.StabilizationIterations,
	}
}
