package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"androbot/internal/config"
	"androbot/internal/dialogue"
	transport "androbot/internal/transport/http"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// seedFile is a question file imported into the in-memory store at start-up.
type seedFile struct {
	path      string
	specialty string
}

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string, defaultPort string) *cobra.Command {
	var seed seedFile
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the bot server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port, seed)
		},
	}
	cmd.Flags().StringVar(port, "port", defaultPort, "port to listen on (overrides server.port)")
	cmd.Flags().StringVar(&seed.path, "questions", "", "question file to seed the in-memory store with")
	cmd.Flags().StringVar(&seed.specialty, "specialty", "", "specialty of the --questions file")
	return cmd
}

func runServer(ctx context.Context, configPath, portFlag string, seed seedFile) error {
	cfg, log, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	deps, err := buildComponents(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer deps.Close()

	if err := seedQuestions(ctx, cfg, deps, seed, log); err != nil {
		return err
	}

	engine := dialogue.NewEngine(deps.service, log.Named("dialogue"))
	wsHandler := transport.NewWSHandler(engine, deps.states, log.Named("ws"))

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting bot server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// seedQuestions fills the in-memory store from seed. Postgres deployments load questions with
// the load-questions command instead.
func seedQuestions(ctx context.Context, cfg config.Config, deps *components, seed seedFile, log *zap.Logger) error {
	if seed.path == "" {
		if cfg.Postgres.URL == "" {
			log.Warn("in-memory store started without questions, pass --questions to seed it")
		}
		return nil
	}
	if cfg.Postgres.URL != "" {
		return fmt.Errorf("--questions seeds the in-memory store only, use load-questions with postgres")
	}
	specialty, err := activeSpecialty(cfg, seed.specialty)
	if err != nil {
		return err
	}
	n, err := importQuestionFile(ctx, deps.service, seed.path, specialty, false)
	if err != nil {
		return err
	}
	log.Info("seeded in-memory questions", zap.String("file", seed.path), zap.String("specialty", string(specialty)), zap.Int("count", n))
	return nil
}
