package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stagequiz/internal/app"
	"stagequiz/internal/bank"
	"stagequiz/internal/config"
	"stagequiz/internal/domain"
	"stagequiz/internal/infra/memory"
	pgbank "stagequiz/internal/infra/postgres"
	redisbank "stagequiz/internal/infra/redis"
	"stagequiz/internal/replication"
	transport "stagequiz/internal/transport/http"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz session server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// bankRepository is the slice of the bank stores the server needs.
type bankRepository interface {
	GetBank(ctx context.Context, bankID string) ([]domain.Question, error)
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
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

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.BankLoader = memory.NewStaticBankLoader(map[string][]domain.Question{
		"default": bank.Default(),
	})
	if pool != nil {
		loader = pgbank.NewBankLoader(pool)
	}

	bankTTL := config.TTLDuration(cfg.Bank.TTL, 10*time.Minute)
	var bankRepo bankRepository
	if redisClient != nil {
		bankRepo = redisbank.NewBankRepository(redisClient, loader, bankTTL)
	} else {
		bankRepo = memory.NewBankRepository(loader, bankTTL)
	}

	// Each process replicates its state mutations over the bus; with no
	// redis configured, the bus stays in-process and the server is its
	// own single replica.
	var bus replication.Bus = memory.NewBus()
	if redisClient != nil {
		channel := cfg.Redis.Channel
		if channel == "" {
			channel = redisbank.DefaultChannel
		}
		bus = redisbank.NewBus(redisClient, channel)
	}
	replicator := replication.New(bus)

	session := app.NewSession(app.Options{
		Players:        cfg.Game.Players,
		TotalQuestions: cfg.Game.TotalQuestions,
		Sink:           replicator,
	})
	detach, err := replicator.Attach(session)
	if err != nil {
		return err
	}
	defer detach()

	bankID := cfg.Bank.ID
	if bankID == "" {
		bankID = "default"
	}
	questions, err := bankRepo.GetBank(ctx, bankID)
	if err != nil {
		return err
	}
	session.LoadQuestions(questions)

	wsHandler := transport.NewWSHandler(session)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting stagequiz on :%s (sender %s)", finalPort, replicator.SenderID())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
