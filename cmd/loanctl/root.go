package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"loan-eligibility-workers/internal/app"
	"loan-eligibility-workers/internal/common/config"
	"loan-eligibility-workers/internal/common/database"
	"loan-eligibility-workers/internal/common/logger"

	"github.com/spf13/cobra"
)

const cliName = "loanctl"

var (
	cfgFile string
	debug   bool

	rootCmd = &cobra.Command{
		Use:          cliName,
		Short:        "loanctl runs eligibility evaluations, notifications and migrations outside the workflow engine",
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is configs/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "verbose/debug output")
}

func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.LoadFromFile(cfgFile)
	}
	return config.Load()
}

func newLogger(cfg *config.Config) logger.Logger {
	level := cfg.Logging.Level
	if debug {
		level = "debug"
	}
	return logger.NewStructured(level, "console")
}

// session holds the connections opened for one command.
type session struct {
	cfg        *config.Config
	log        logger.Logger
	pg         *database.PostgresClient
	redis      *database.RedisClient
	components *app.Components
}

// openSession connects to Postgres and wires the domain services. Redis is
// used as a cache only when it answers a ping.
func openSession(ctx context.Context) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log := newLogger(cfg)

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		return nil, err
	}
	if err := pg.Ping(ctx); err != nil {
		pg.Close()
		return nil, err
	}

	s := &session{cfg: cfg, log: log, pg: pg}

	if redis, err := database.NewRedis(cfg.Database.Redis); err == nil {
		if err := redis.Ping(ctx); err == nil {
			s.redis = redis
		} else {
			log.Warn("Redis unavailable, continuing without cache", map[string]interface{}{"error": err.Error()})
			redis.Close()
		}
	}

	s.components, err = app.NewComponents(ctx, cfg, app.Clients{Postgres: pg, Redis: s.redis}, log)
	if err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *session) Close() {
	if s.redis != nil {
		s.redis.Close()
	}
	s.pg.Close()
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
