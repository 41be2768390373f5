package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/bremsim/internal/config"
	"github.com/vk/bremsim/internal/ctxlog"
	"github.com/vk/bremsim/internal/hcl_adapter"
	"github.com/vk/bremsim/internal/simulation"
	"github.com/vk/bremsim/internal/yaml_adapter"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	in      io.Reader
	outW    io.Writer
	logger  *slog.Logger
	config  *Config
	loaders config.Loaders
}

// DefaultLoaders maps every supported macro extension to its loader.
func DefaultLoaders() config.Loaders {
	yamlLoader := yaml_adapter.NewLoader()
	return config.Loaders{
		".hcl":  hcl_adapter.NewLoader(),
		".yaml": yamlLoader,
		".yml":  yamlLoader,
	}
}

// NewApp is the constructor for the main application. Console output goes
// to outW and logs to logW; in feeds the interactive session. A nil loaders
// map means DefaultLoaders.
func NewApp(in io.Reader, outW, logW io.Writer, appConfig *Config, loaders config.Loaders) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, logW)
	logger.Debug("Logger configured successfully.")

	if loaders == nil {
		loaders = DefaultLoaders()
	}
	return &App{
		in:      in,
		outW:    outW,
		logger:  logger,
		config:  appConfig,
		loaders: loaders,
	}
}

// Run executes the mode selected by the configuration.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.", "interactive", a.config.Interactive)

	var err error
	if a.config.Interactive {
		err = a.runInteractive(ctx)
	} else {
		err = a.runBatch(ctx)
	}

	a.logger.Debug("App.Run method finished.")
	return err
}

func (a *App) runBatch(ctx context.Context) error {
	model, err := a.loaders.Load(ctx, a.config.MacroPath)
	if err != nil {
		return fmt.Errorf("failed to load macro: %w", err)
	}
	a.logger.Info("Macro loaded.", "path", a.config.MacroPath, "runs", len(model.Runs))

	s, err := a.open(ctx, model)
	if err != nil {
		return err
	}
	if len(model.Runs) == 0 {
		a.logger.Warn("Macro defines no runs.", "path", a.config.MacroPath)
	}

	var runErr error
	for _, r := range model.Runs {
		if _, runErr = s.sim.BeamOn(ctx, r); runErr != nil {
			break
		}
	}
	if err := s.close(ctx); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// session is one configured simulation plus its optional monitoring server.
type session struct {
	sim    *simulation.Simulation
	server *server
	logger *slog.Logger
}

func (a *App) open(ctx context.Context, model *config.Model) (*session, error) {
	srv := startServer(ctx, model.Monitor.Port)

	var opts []simulation.Option
	if srv != nil {
		opts = append(opts, simulation.WithMonitor(srv.monitor))
	}
	sim, err := simulation.Setup(ctx, model, a.outW, opts...)
	if err != nil {
		if srv != nil {
			_ = srv.shutdown(ctx)
		}
		return nil, fmt.Errorf("failed to set up simulation: %w", err)
	}
	return &session{sim: sim, server: srv, logger: a.logger}, nil
}

func (s *session) close(ctx context.Context) error {
	// Shutdown must run even after the caller's context is cancelled.
	ctx = context.WithoutCancel(ctx)
	err := s.sim.Close(ctx)
	if s.server != nil {
		if serr := s.server.shutdown(ctx); err == nil {
			err = serr
		}
	}
	if err != nil {
		return fmt.Errorf("failed to close session: %w", err)
	}
	s.logger.Debug("Session closed.")
	return nil
}
