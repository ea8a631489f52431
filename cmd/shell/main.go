package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	apihttp "github.com/deskshell/deskshell/internal/api/http"
	"github.com/deskshell/deskshell/internal/diagnostics"
	"github.com/deskshell/deskshell/internal/domain/bridge"
	"github.com/deskshell/deskshell/internal/domain/connection"
	"github.com/deskshell/deskshell/internal/domain/lifecycle"
	"github.com/deskshell/deskshell/internal/domain/window"
	"github.com/deskshell/deskshell/internal/gateway/loopback"
	"github.com/deskshell/deskshell/internal/gateway/restbridge"
	"github.com/deskshell/deskshell/internal/gateway/wsbridge"
	"github.com/deskshell/deskshell/internal/infrastructure/config"
	"github.com/deskshell/deskshell/internal/infrastructure/logging"
	"github.com/deskshell/deskshell/internal/infrastructure/monitoring"
	"github.com/deskshell/deskshell/internal/infrastructure/server"
	"github.com/deskshell/deskshell/internal/platform"
	"github.com/deskshell/deskshell/internal/shared/id"
)

func main() {
	mode := flag.String("mode", "", "bridge mode override: loopback, ws, rest")
	port := flag.String("port", "", "diagnostics port override")
	demo := flag.Bool("demo", false, "open a demo window at startup")
	flag.Parse()

	cfg := config.LoadOrDefault()
	if *mode != "" {
		cfg.Bridge.Mode = *mode
	}
	if *port != "" {
		cfg.Server.Port = *port
	}

	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	} else {
		logger = logging.NewDefault()
	}
	session := id.NewSessionID()
	logger = logger.WithSession(string(session))
	defer logger.Sync()

	logger.Info("Starting deskshell",
		zap.String("bridge_mode", cfg.Bridge.Mode),
		zap.String("diag_addr", cfg.Server.Host+":"+cfg.Server.Port),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := monitoring.NewMetrics()
	bus := platform.NewBroadcaster()
	env := platform.NewEnvironment(cfg.Bridge.PageURL)

	var gw bridge.Gateway
	switch cfg.Bridge.Mode {
	case "loopback":
		g := loopback.NewGateway(logger)
		loopback.NewBackend(logger, bus).Attach(g)
		gw = g
	case "ws":
		client := wsbridge.NewClient(wsbridge.Options{
			URL:         cfg.Bridge.WSURL,
			Logger:      logger,
			Broadcaster: bus,
		})
		go client.Connect(ctx)
		gw = client
	case "rest":
		gw = restbridge.NewClient(restbridge.Options{
			BaseURL: cfg.Bridge.RESTURL,
			Logger:  logger,
		})
	default:
		logger.Fatal("Unknown bridge mode", zap.String("mode", cfg.Bridge.Mode))
	}

	bindings, err := config.LoadBindings(cfg.Bridge.BindingsFile)
	if err != nil {
		logger.Warn("Bindings file rejected, using defaults", zap.Error(err))
		bindings = config.DefaultBindings()
	}
	strategies, err := bridge.StrategiesByName(bindings.Strategies)
	if err != nil {
		logger.Warn("Strategy list rejected, using defaults", zap.Error(err))
		strategies = nil
	}

	resolver := bridge.NewResolver(gw, bridge.ResolverOptions{
		Strategies: strategies,
		Mute:       bindings.Mute,
		Logger:     logger,
		Metrics:    metrics,
	})

	hub := diagnostics.NewHub(logger)

	queue := lifecycle.New(resolver, lifecycle.Options{
		Capacity:      cfg.Queue.Capacity,
		FlushInterval: cfg.Queue.FlushInterval,
		Logger:        logger,
		Metrics:       metrics,
	})

	signals := platform.NewSignals(gw, bus, logger)
	monitor := connection.New(resolver, signals, connection.Options{
		Environment:       env,
		Queue:             queue,
		Refresh:           hub,
		HeartbeatInterval: cfg.Monitor.HeartbeatInterval,
		HistoryCap:        cfg.Monitor.HistoryCap,
		RecentHistory:     cfg.Monitor.RecentHistory,
		Logger:            logger,
		Metrics:           metrics,
	})
	resolver.SetRecorder(monitor)

	registry := window.NewRegistry(platform.NewHeadlessFactory(logger), queue, window.Options{
		FocusDebounce: cfg.Window.FocusDebounce,
		DedupeWindow:  cfg.Window.DedupeWindow,
		Logger:        logger,
		Metrics:       metrics,
	})

	queue.Start()
	monitor.Start()

	if *demo {
		openDemoWindow(registry, logger)
	}

	handlers := apihttp.NewHandlers(monitor, queue, registry, hub, logger)
	srv := server.New(cfg, handlers, metrics, logger)

	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Diagnostics server failed", zap.Error(err))
	}

	// Close windows first so their lifecycle reports make the last flush.
	registry.CloseAll()
	registry.Shutdown()
	queue.Flush()
	queue.Stop()
	monitor.Stop()

	logger.Info("Shutdown complete")
}

func openDemoWindow(registry *window.Registry, logger *logging.Logger) {
	windowID, err := registry.Open("Calculator", func() string {
		return "<html><body><main id=\"calc\"></main></body></html>"
	}, window.Placement{Width: 320, Height: 480})
	if err != nil {
		logger.Warn("Demo window failed to open", zap.Error(err))
		return
	}
	logger.Info("Demo window opened", zap.String("window_id", windowID))
}
