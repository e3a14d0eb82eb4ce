// Command dealfloor runs the deal-floor career simulation service.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/talgya/dealfloor/internal/advisor"
	"github.com/talgya/dealfloor/internal/api"
	"github.com/talgya/dealfloor/internal/config"
	"github.com/talgya/dealfloor/internal/content"
	"github.com/talgya/dealfloor/internal/engine"
	"github.com/talgya/dealfloor/internal/entropy"
	"github.com/talgya/dealfloor/internal/persistence"
	"github.com/talgya/dealfloor/internal/scenario"
	"github.com/talgya/dealfloor/internal/state"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "dealfloor",
		Short:         "Turn-based deal-floor career simulation",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(serveCmd(), runCmd(), sessionsCmd())
	return root
}

func runCmd() *cobra.Command {
	var (
		weeks      int
		level      string
		difficulty string
		seed       int64
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a headless session for a number of weeks and print a report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			setupLogger(cfg.LogLevel)

			tuning, err := config.LoadTuning(cfg.TuningPath)
			if err != nil {
				return err
			}
			catalog, err := loadCatalog(cfg.ScenarioPath)
			if err != nil {
				return err
			}
			cast, err := loadCast(cfg.CastPath)
			if err != nil {
				return err
			}
			lvl, err := parseLevel(level)
			if err != nil {
				return err
			}
			diff, err := parseDifficulty(difficulty)
			if err != nil {
				return err
			}

			var src entropy.Source
			if seed != 0 {
				src = entropy.NewSeeded(seed)
			} else {
				src = entropy.Crypto{}
			}

			snap, dec := state.Reduce(&state.Snapshot{SessionID: uuid.NewString()}, state.StatChanges{
				InitialLevel:      &lvl,
				InitialDifficulty: &diff,
			})
			if dec != nil {
				return fmt.Errorf("session setup declined: %s", dec.Reason)
			}
			cast.Seed(snap)
			sim := engine.New(snap, tuning, src, catalog)

			for i := 0; i < weeks; i++ {
				sim.AdvanceWeek(sim.Snap.LastWeekCursor + 1)
				p := sim.Snap.Player
				cmd.Printf("week %-3d  cash %12s  stress %5.1f  rep %5.1f  portfolio %d  %s\n",
					p.GameTime.Week,
					humanize.Commaf(p.Finances.BankBalance),
					p.Stress, p.Reputation, len(p.Portfolio),
					state.PhaseName(sim.Snap.Phase))
				if sim.Snap.Phase != state.PhasePlaying {
					break
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&weeks, "weeks", 52, "weeks to simulate")
	cmd.Flags().StringVar(&level, "level", "analyst", "starting seniority (analyst, associate, vp, principal, partner)")
	cmd.Flags().StringVar(&difficulty, "difficulty", "normal", "difficulty (easy, normal, hard)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "deterministic seed (0 = random)")
	return cmd
}

func parseLevel(s string) (state.Seniority, error) {
	switch strings.ToLower(s) {
	case "analyst":
		return state.SeniorityAnalyst, nil
	case "associate":
		return state.SeniorityAssociate, nil
	case "vp":
		return state.SeniorityVP, nil
	case "principal":
		return state.SeniorityPrincipal, nil
	case "partner":
		return state.SeniorityPartner, nil
	default:
		return 0, fmt.Errorf("unknown level %q", s)
	}
}

func parseDifficulty(s string) (state.Difficulty, error) {
	switch strings.ToLower(s) {
	case "easy":
		return state.DifficultyEasy, nil
	case "normal":
		return state.DifficultyNormal, nil
	case "hard":
		return state.DifficultyHard, nil
	default:
		return 0, fmt.Errorf("unknown difficulty %q", s)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, resuming the last saved session if any",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			setupLogger(cfg.LogLevel)
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	tuning, err := config.LoadTuning(cfg.TuningPath)
	if err != nil {
		return err
	}

	catalog, err := loadCatalog(cfg.ScenarioPath)
	if err != nil {
		return err
	}
	slog.Info("scenario catalog loaded", "scenarios", catalog.Len())

	cast, err := loadCast(cfg.CastPath)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		os.MkdirAll(dir, 0755)
	}
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	var src entropy.Source
	switch {
	case cfg.Seed != 0:
		src = entropy.NewSeeded(cfg.Seed)
		slog.Info("deterministic entropy", "seed", cfg.Seed)
	case cfg.RandomOrgKey != "":
		src = entropy.NewClient(cfg.RandomOrgKey)
		slog.Info("random.org entropy enabled")
	default:
		src = entropy.Crypto{}
	}

	snap := resumeSession(db)
	sim := engine.New(snap, tuning, src, catalog)

	adv := advisor.NewClient(cfg.AdvisorKey, cfg.AdvisorURL)
	if adv == nil {
		slog.Warn("DEALFLOOR_ADVISOR_KEY not set, advisor endpoint disabled")
	}
	if cfg.AdminKey == "" {
		slog.Warn("DEALFLOOR_ADMIN_KEY not set, admin endpoints are open")
	}

	srv := api.New(sim, db, adv, cast, cfg.AdminKey)
	go srv.Hub.Run()

	httpSrv := &http.Server{
		Addr:    cfg.Addr,
		Handler: srv.Handler(),
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", cfg.Addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutCtx); err != nil {
		return err
	}
	srv.Persist()
	return nil
}

func sessionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List saved sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			setupLogger(cfg.LogLevel)

			db, err := persistence.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			sessions, err := db.ListSessions()
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				cmd.Println("no saved sessions")
				return nil
			}
			for _, s := range sessions {
				cmd.Printf("%-36s  week %-4d  %-9s  tick %d\n",
					s.ID, s.Week, state.PhaseName(s.Phase), s.UpdatedTick)
			}
			return nil
		},
	}
}

// resumeSession loads the most recently saved session, if one exists.
func resumeSession(db *persistence.DB) *state.Snapshot {
	id, err := db.GetMeta("last_session")
	if err != nil || id == "" {
		slog.Info("no saved session, waiting for POST /v1/session")
		return nil
	}
	snap, err := db.LoadSnapshot(id)
	if err != nil {
		if !errors.Is(err, persistence.ErrNotFound) {
			slog.Error("session load failed", "session", id, "error", err)
		}
		return nil
	}
	week := 0
	if snap.Player != nil {
		week = snap.Player.GameTime.Week
	}
	slog.Info("session resumed", "session", id, "week", week)
	return snap
}

func loadCatalog(path string) (*scenario.Catalog, error) {
	if path != "" {
		return scenario.LoadFile(path)
	}
	return scenario.LoadDefault()
}

func loadCast(path string) (*content.Cast, error) {
	if path != "" {
		return content.LoadFile(path)
	}
	return content.LoadDefault()
}

func setupLogger(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
}
