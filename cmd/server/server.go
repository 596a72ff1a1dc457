package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/paularlott/cli"
	"golang.org/x/sync/errgroup"

	"github.com/martinsuchenak/edgetag/cmd/cmdutil"
	"github.com/martinsuchenak/edgetag/internal/api"
	"github.com/martinsuchenak/edgetag/internal/config"
	"github.com/martinsuchenak/edgetag/internal/job"
	"github.com/martinsuchenak/edgetag/internal/log"
	"github.com/martinsuchenak/edgetag/internal/mcp"
	"github.com/martinsuchenak/edgetag/internal/worker"
)

const shutdownTimeout = 10 * time.Second

// ServerConfig holds the wired components the server runs
type ServerConfig struct {
	Config     *config.Config
	APIHandler *api.Handler
	MCPServer  *mcp.Server
	Pool       *worker.WorkerPool
	Scheduler  *worker.Scheduler
}

// NewHTTPHandler builds the routed and wrapped HTTP handler
func NewHTTPHandler(cfg *ServerConfig) http.Handler {
	mux := http.NewServeMux()

	cfg.APIHandler.RegisterRoutes(mux)
	mux.HandleFunc("/mcp", cfg.MCPServer.GetHTTPHandler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})

	var handler http.Handler = mux
	if cfg.Config.IsAPIAuthEnabled() {
		handler = api.AuthMiddleware(cfg.Config.APIAuthToken, "/api/", handler)
	}
	handler = api.SecurityHeadersMiddleware(handler)
	return api.RequestLogMiddleware(handler)
}

// RunServer serves HTTP and runs the background workers until ctx is done
// or the process receives SIGINT/SIGTERM
func RunServer(ctx context.Context, cfg *ServerConfig) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:              cfg.Config.ListenAddr,
		Handler:           NewHTTPHandler(cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	cfg.Pool.Start()
	defer cfg.Pool.Stop()

	if cfg.Scheduler != nil {
		cfg.Scheduler.Start()
		defer cfg.Scheduler.Stop()
	}

	log.Info("Starting edgetag server", "addr", cfg.Config.ListenAddr)
	log.Info("API available", "url", "http://localhost"+cfg.Config.ListenAddr+"/api/")
	log.Info("MCP available", "url", "http://localhost"+cfg.Config.ListenAddr+"/mcp")
	if cfg.Config.IsAPIAuthEnabled() {
		log.Info("API authentication enabled")
	}
	cfg.MCPServer.LogStartup()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("Server error", "error", err)
		return err
	}

	log.Info("Server stopped")
	return nil
}

func Command() *cli.Command {
	return &cli.Command{
		Name:        "server",
		Usage:       "Start the edgetag server",
		Description: "Start the HTTP API and MCP endpoint, the job workers and the optional schedule",
		Flags:       config.GetFlags(),
		Run: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := config.Load(cmd)
			if err != nil {
				return err
			}
			store, err := cmdutil.OpenStorage(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			log.Info("Configuration loaded",
				"data_dir", cfg.DataDir,
				"listen_addr", cfg.ListenAddr,
				"workers", cfg.Workers,
				"excluded_prefixes", len(cfg.ExcludePrefixes))

			classifier := cfg.Classifier()
			pool := worker.NewWorkerPool(cfg.Workers, cfg.QueueSize)
			runner := job.NewRunner(store, classifier, pool)

			var scheduler *worker.Scheduler
			if cfg.Schedule != "" {
				scheduler = worker.NewScheduler(runner)
				if err := scheduler.AddTagJob(cfg.Schedule, cfg.ScheduleTag, cfg.ScheduleCommit); err != nil {
					return err
				}
			} else {
				log.Info("No schedule configured, runs are triggered via CLI, API or MCP only")
			}

			return RunServer(ctx, &ServerConfig{
				Config:     cfg,
				APIHandler: api.NewHandler(store, runner, classifier),
				MCPServer:  mcp.NewServer(store, runner, classifier, cfg.MCPAuthToken),
				Pool:       pool,
				Scheduler:  scheduler,
			})
		},
	}
}
