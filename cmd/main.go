package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"SisContratacoes/api/auth"
	"SisContratacoes/api/middlewares"
	"SisContratacoes/internal/appmanager"
	"SisContratacoes/internal/clock"
	"SisContratacoes/internal/config"
	"SisContratacoes/internal/schema"
)

// connect opens both handles: database/sql over lib/pq for the account
// tables and a pgx pool for everything else.
func connect(ctx context.Context, dsn string) (*sql.DB, *pgxpool.Pool, error) {
	var db *sql.DB
	var pool *pgxpool.Pool
	err := retry.Do(func() error {
		var err error
		if db == nil {
			d, err := sql.Open("postgres", dsn)
			if err != nil {
				return err
			}
			if err := d.PingContext(ctx); err != nil {
				d.Close()
				return err
			}
			db = d
		}
		pool, err = pgxpool.New(ctx, dsn)
		if err != nil {
			return err
		}
		if err = pool.Ping(ctx); err != nil {
			pool.Close()
			pool = nil
			return err
		}
		return nil
	},
		retry.Context(ctx),
		retry.Attempts(5),
		retry.Delay(time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Warn().Err(err).Uint("attempt", n+1).Msg("database not reachable, retrying")
		}),
	)
	if err != nil {
		if db != nil {
			db.Close()
		}
		return nil, nil, err
	}
	return db, pool, nil
}

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	// Load .env for local dev; deployed environments set variables directly.
	_ = godotenv.Load("../.env")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	db, pool, err := connect(ctx, cfg.DB.DSN())
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to DB")
	}
	defer db.Close()
	defer pool.Close()

	if os.Getenv("APPLY_SCHEMA") == "true" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := schema.Apply(ctx, pool)
		cancel()
		if err != nil {
			log.Fatal().Err(err).Msg("apply schema")
		}
	}

	tokens := auth.NewTokenService(cfg.Auth)
	manager := appmanager.NewAppManager(&appmanager.Deps{
		Config: cfg,
		DB:     db,
		Pool:   pool,
		Clock:  clock.New(cfg.Location),
		Tokens: tokens,
		Auth:   middlewares.Authenticate(tokens, pool),
	})

	servicesCfg, err := appmanager.LoadServiceSequence(cfg.ServicesFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load service sequence")
	}
	if err := manager.AutoRegisterServices(servicesCfg); err != nil {
		log.Fatal().Err(err).Msg("register services")
	}
	if err := manager.StartAll(); err != nil {
		log.Fatal().Err(err).Msg("failed to start")
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	if err := manager.StopAll(); err != nil {
		log.Error().Err(err).Msg("failed to stop")
	}
}
