package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mvickers/guesslet/internal/config"
	"github.com/mvickers/guesslet/internal/database"
	"github.com/mvickers/guesslet/internal/handlers"
	"github.com/mvickers/guesslet/internal/middleware"
	"github.com/mvickers/guesslet/internal/session"
	"github.com/mvickers/guesslet/internal/upstream"
)

func newCmd(cfg *config.Config) *cobra.Command {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "guesslet",
		Short:         "Web front-end for an Akinator-style guessing game server.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&cfg.GameServerURL, "game-server-url", "", "base URL of the upstream game server (env: GAME_SERVER_URL)")
	fs.StringVar(&cfg.SessionSecret, "session-secret", "", "secret used to sign moderator cookies (env: SESSION_SECRET)")
	fs.StringVar(&cfg.DatabaseURL, "database-url", "", "Postgres connection string for the moderator panel (env: DATABASE_URL)")
	fs.StringVar(&cfg.RedisAddr, "redis-addr", "localhost:6379", "Redis address backing the session store (env: REDIS_ADDR)")
	fs.IntVarP(&cfg.Port, "port", "p", 5001, "port to listen on (env: PORT)")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", false, "enable debug logging (env: VERBOSE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger := logrus.New()
	if cfg.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	sessions, err := session.NewStore(&session.Config{
		RedisClient: redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}),
	})
	if err != nil {
		return fmt.Errorf("session store: %w", err)
	}

	if cfg.GameServerURL == "" {
		logger.Warn("GAME_SERVER_URL is not set; game routes will render a configuration error")
	}
	up := upstream.New(cfg.GameServerURL)

	var db *database.Store
	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is not set; the moderator panel will not work")
	} else {
		db, err = database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
	}

	srv := handlers.NewServer(cfg, logger, sessions, up, db)

	server := &http.Server{
		Handler:      middleware.LogMiddleware(logger)(srv.Routes()),
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
	}

	l, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	logger.Infof("listening on %s", l.Addr())

	errc := make(chan error, 1)
	go func() {
		errc <- server.Serve(l)
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	select {
	case err := <-errc:
		return fmt.Errorf("failed to serve: %w", err)
	case sig := <-sigs:
		logger.Infof("terminating: %v", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func main() {
	cfg := &config.Config{}
	if err := newCmd(cfg).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
