package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codegen-backend/internal/database"
	"codegen-backend/internal/handlers"
	"codegen-backend/internal/health"
	h "codegen-backend/internal/http"
	"codegen-backend/internal/services"
	"codegen-backend/internal/timeutil"

	"github.com/spf13/cobra"
)

var workerMigrate bool

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the scheduler and the status HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if workerMigrate && a.db != nil {
			migrator, err := database.NewMigrator(a.db)
			if err != nil {
				return err
			}
			if err := migrator.RunMigrations(ctx); err != nil {
				return err
			}
		}

		var pinger health.Pinger
		if a.db != nil {
			pinger = a.db
		}
		checker := health.NewHealthChecker(pinger, a.cfg.Redis.Enabled)

		router := h.NewRouter(
			handlers.NewHealthHandler(checker),
			handlers.NewCodegenHandler(a.processor, a.generator, a.monitor),
		)
		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		scheduler := services.NewScheduler(a.processor, a.monitor, a.generator, services.SchedulerConfig{
			ProcessInterval:  a.cfg.Scheduler.ProcessInterval,
			CapacityInterval: a.cfg.Scheduler.CapacityInterval,
			AlignToMidnight:  a.cfg.Scheduler.AlignToMidnight,
			Location:         timeutil.Load(a.cfg.Codegen.Timezone),
		})
		scheduler.Start(ctx)

		errChan := make(chan error, 1)
		go func() {
			log.Printf("[HTTP] Listening on %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()

		select {
		case <-ctx.Done():
			log.Println("[Worker] Shutdown signal received")
		case err = <-errChan:
			log.Printf("[HTTP] Server failed: %v", err)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Printf("[HTTP] Shutdown error: %v", shutdownErr)
		}
		scheduler.Stop()
		return err
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
	workerCmd.Flags().BoolVar(&workerMigrate, "migrate", false, "Run pending migrations before starting")
}
