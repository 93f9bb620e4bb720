package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	badgerstore "mezzanine/adapters/badger"
	"mezzanine/adapters/postgres"
	"mezzanine/app"
	"mezzanine/domain/belief"
	"mezzanine/domain/triangle"
	"mezzanine/internal"
	"mezzanine/internal/config"
	"mezzanine/internal/errors"
	"mezzanine/internal/migration"
	"mezzanine/internal/testkit"
	"mezzanine/ports"

	"github.com/dgraph-io/badger/v4"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
)

// version is stamped at build time with -ldflags "-X main.version=..."
var version = "0.1.0"

// overrides are the persistent flags that take precedence over the environment
type overrides struct {
	game     string
	bound    int
	seed     int64
	logLevel string
}

// runtime holds what every subcommand needs once configuration is loaded
type runtime struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *sqlx.DB
	store  *badger.DB
	games  *app.GameService
}

func main() {
	// Missing .env files are normal; the environment still applies.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &overrides{}
	rootCmd := &cobra.Command{
		Use:           "mezzanine",
		Short:         "Mezzanine: a guessing game that infers your criterion",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&flags.game, "game", "", "game to play: number or triangle (default from MEZZANINE_GAME)")
	rootCmd.PersistentFlags().IntVar(&flags.bound, "bound", 0, "the largest admissible number in the number game")
	rootCmd.PersistentFlags().Int64Var(&flags.seed, "seed", 0, "random seed; 0 picks one from the clock")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "ERROR, WARN, INFO, DEBUG or TRACE")

	rootCmd.AddCommand(
		newPlayCmd(flags),
		newServeCmd(flags),
		newExportCmd(flags),
		newReplayCmd(flags),
		newSessionsCmd(flags),
		newMigrateCmd(flags),
	)
	return rootCmd
}

// loadConfig reads the environment and applies flag overrides
func loadConfig(flags *overrides) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flags.game != "" {
		cfg.Game.Name = flags.game
	}
	if flags.bound != 0 {
		cfg.Game.Bound = flags.bound
	}
	if flags.seed != 0 {
		cfg.Game.Seed = flags.seed
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid command-line flags")
	}
	return cfg, nil
}

// settingsFrom translates configuration into game settings
func settingsFrom(cfg *config.Config) app.Settings {
	return app.Settings{
		DefaultGame:  cfg.Game.Name,
		DefaultBound: cfg.Game.Bound,
		MaxBound:     cfg.Game.MaxBound,
		Search: belief.SearchConfig{
			DesiredBits: cfg.Search.DesiredBits,
			SampleCap:   cfg.Search.SampleCap,
		},
		SubstantialitySamples: cfg.Search.SubstantialitySamples,
		Workers:               cfg.Search.Workers,
		Triangle: triangle.Domain{
			MaxStacks: cfg.Game.MaxStacks,
			MaxHeight: cfg.Game.MaxHeight,
		},
	}
}

// openDatabase connects to PostgreSQL and brings the schema up to date
func openDatabase(ctx context.Context, cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.Database.URL)
	if err != nil {
		return nil, errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to connect to database"))
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if err := migration.NewRunner().Run(ctx, db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "database migration failed")
	}
	return db, nil
}

// setup builds the logger, the session store and the game service
func setup(ctx context.Context, flags *overrides) (*runtime, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}
	logger := internal.NewLogger(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	rt := &runtime{cfg: cfg, logger: logger}
	kit := testkit.NewTestKit()
	var repo ports.SessionRepository
	switch {
	case cfg.Database.Enabled():
		rt.db, err = openDatabase(ctx, cfg)
		if err != nil {
			return nil, err
		}
		repo = postgres.NewSessionRepository(rt.db)
		logger.Info("sessions persisted to postgres")
	case cfg.Store.Enabled():
		storeCfg := badgerstore.DefaultConfig(cfg.Store.Dir)
		storeCfg.SyncWrites = cfg.Store.SyncWrites
		storeCfg.Logger = logger.With("component", "badger")
		rt.store, err = badgerstore.Open(storeCfg)
		if err != nil {
			return nil, errors.Wrap(err, "failed to open session store")
		}
		repo = badgerstore.NewSessionRepository(rt.store)
		logger.Info("sessions persisted to embedded store", "dir", cfg.Store.Dir)
	default:
		repo = kit.SessionRepository()
		logger.Debug("no DATABASE_URL or MEZZANINE_STORE_DIR, sessions kept in memory")
	}

	rt.games = app.NewGameService(repo, kit.RNGAdapter(), settingsFrom(cfg), logger)
	return rt, nil
}

func (rt *runtime) Close() {
	if rt.db != nil {
		rt.db.Close()
	}
	if rt.store != nil {
		if err := rt.store.Close(); err != nil {
			rt.logger.Warn("closing session store", "error", err)
		}
	}
}

// startRequest is a new session as the configuration describes it
func (rt *runtime) startRequest() app.StartRequest {
	return app.StartRequest{
		Game:  rt.cfg.Game.Name,
		Bound: rt.cfg.Game.Bound,
		Seed:  rt.cfg.Game.Seed,
	}
}
