package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warp/placement-points/api"
	"github.com/warp/placement-points/flows"
	"github.com/warp/placement-points/scoring"
	"github.com/warp/placement-points/snapshot"
	"github.com/warp/placement-points/store"
)

// =============================================================================
// SERVE
// =============================================================================

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				app.cfg.Server.Port = port
			}
			return runServer(cmd.Context())
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "HTTP server port (overrides config)")
	return cmd
}

func runServer(ctx context.Context) error {
	cfg, logger := app.cfg, app.logger
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := openStore(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer st.Close()

	if cfg.SeedOnStart {
		if err := store.Seed(ctx, st); err != nil {
			return fmt.Errorf("failed to seed database: %w", err)
		}
		logger.Info("Seeded criterion catalog and preset flows")
	}

	handler := api.NewHandler(st, logger)
	router := api.NewRouter(handler, cfg.Server.AllowedOrigins)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting",
			zap.Int("port", cfg.Server.Port),
			zap.String("driver", cfg.Database.Driver),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}

// =============================================================================
// SCORE
// =============================================================================

func scoreCmd() *cobra.Command {
	var (
		useDB   bool
		flowRef string
	)

	cmd := &cobra.Command{
		Use:   "score <snapshot.json>",
		Short: "Score a session backup file",
		Long: `Scores a session backup exported by the calculator. The flow is the
file's selectedFlowId unless --flow is given. Flows are taken from the
built-in presets, or from the configured database with --db.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read snapshot: %w", err)
			}
			session, err := snapshot.Import(data)
			if err != nil {
				return err
			}

			ref := session.SelectedFlowID
			if flowRef != "" {
				ref = flowRef
			}
			if ref == "" {
				return fmt.Errorf("snapshot has no selectedFlowId; pass --flow")
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			flow, err := lookupFlow(ctx, ref, useDB)
			if err != nil {
				return err
			}

			result := scoring.Engine{}.Score(session.Input(flow))
			app.logger.Debug("scored snapshot",
				zap.String("file", args[0]),
				zap.String("flow", string(flow.Slug)),
				zap.Int("years", len(session.Years)),
			)
			printResult(cmd.OutOrStdout(), flow, result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&useDB, "db", false, "Resolve the flow from the configured database instead of the presets")
	cmd.Flags().StringVarP(&flowRef, "flow", "f", "", "Flow id or slug (overrides selectedFlowId)")
	return cmd
}

func lookupFlow(ctx context.Context, ref string, useDB bool) (scoring.Flow, error) {
	if !useDB {
		flow, ok := flows.Find(ref)
		if !ok {
			return scoring.Flow{}, fmt.Errorf("unknown flow %q", ref)
		}
		return flow, nil
	}

	st, err := openStore(ctx, app.cfg.Database)
	if err != nil {
		return scoring.Flow{}, fmt.Errorf("failed to initialize database: %w", err)
	}
	defer st.Close()

	rec, err := store.LookupFlow(ctx, st, ref)
	if err != nil {
		return scoring.Flow{}, err
	}
	if rec == nil {
		return scoring.Flow{}, fmt.Errorf("flow %q not found in database", ref)
	}
	return rec.Flow()
}

func printResult(w io.Writer, flow scoring.Flow, r scoring.Result) {
	fmt.Fprintf(w, "Flow:       %s (%s)\n", flow.Name, flow.Slug)
	// Hardship lines only for flows that score it; repeated year labels print once, summed.
	if flow.Enabled(scoring.KeyMSD) {
		fmt.Fprintf(w, "Hardship:   %s\n", points(r.Hardship))
		byYear := r.HardshipByYear()
		for _, year := range slices.Sorted(maps.Keys(byYear)) {
			fmt.Fprintf(w, "  %-8d  %s\n", year, points(byYear[year]))
		}
	}
	fmt.Fprintf(w, "Seniority:  %s\n", points(r.Seniority))
	fmt.Fprintf(w, "One-time:   %s\n", points(r.OneTime))
	fmt.Fprintf(w, "Total:      %s\n", points(r.Total))

	for _, warn := range r.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warn)
	}
}

func points(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// =============================================================================
// SEED
// =============================================================================

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Upsert the criterion catalog and preset flows",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			st, err := openStore(ctx, app.cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			defer st.Close()

			if err := store.Seed(ctx, st); err != nil {
				return fmt.Errorf("failed to seed database: %w", err)
			}

			app.logger.Info("Seed complete",
				zap.String("driver", app.cfg.Database.Driver),
				zap.Int("flows", len(flows.All())),
				zap.Int("criteria", len(scoring.Catalog())),
			)
			fmt.Fprintln(cmd.OutOrStdout(), "Seeded criterion catalog and preset flows")
			return nil
		},
	}
}
