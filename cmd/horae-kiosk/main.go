package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"

	"horae/internal/config"
	"horae/internal/db"
	"horae/internal/horae/metrics"
	"horae/internal/horae/service"
	"horae/internal/horae/store"
	"horae/internal/horae/store/memory"
	"horae/internal/horae/store/postgres"
	sqlitestore "horae/internal/horae/store/sqlite"
	"horae/internal/horae/types"
	"horae/internal/httpapi"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "horae-kiosk ", log.LstdFlags|log.LUTC)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc := time.Local
	if cfg.Timezone != "" {
		l, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			logger.Printf("bad HORAE_TIMEZONE %q, using local time: %v", cfg.Timezone, err)
		} else {
			loc = l
		}
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	// Stores
	var (
		enrollStore store.EnrollmentStore
		ledger      store.AttendanceLedger
		readerStore store.ReaderStore
	)

	switch cfg.DBDriver {
	case "postgres":
		pg, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("open postgres: %v", err)
		}
		defer pg.Close()
		if err := pg.EnsureSchema(ctx); err != nil {
			logger.Fatalf("ensure schema: %v", err)
		}
		enrollStore = postgres.NewEnrollmentStore(pg)
		ledger = postgres.NewAttendanceLedger(pg)
		// Readers are local to this kiosk even on a shared ledger.
		readerStore = memory.NewReaderStore()

	default: // sqlite
		conn, err := db.Open(ctx, db.Config{Path: cfg.DBPath, Env: cfg.Env})
		if err != nil {
			logger.Fatalf("open db: %v", err)
		}
		defer conn.Close()

		writer := db.NewWorker(conn)
		defer writer.Close()

		if cfg.Env == "dev" {
			if err := db.SeedDev(ctx, conn, db.SeedDevOptions{KioskID: cfg.KioskID}); err != nil {
				logger.Fatalf("seed dev: %v", err)
			}
		}

		enrollStore = sqlitestore.NewEnrollmentStore(conn)
		ledger = sqlitestore.NewAttendanceLedger(conn, writer)
		readerStore = sqlitestore.NewReaderStore(conn, writer)
	}

	// Enrollment snapshot: load once at startup, optionally reload.
	snapshot := service.NewEnrollmentSnapshot(enrollStore, service.SnapshotConfig{
		ReloadInterval: time.Duration(cfg.EnrollmentReloadMinutes) * time.Minute,
	}, logger, m)
	if err := snapshot.Refresh(ctx); err != nil {
		logger.Fatalf("load enrollments: %v", err)
	}
	if snapshot.Len() == 0 {
		logger.Printf("no enrollments found; scans cannot be verified until the identity store is provisioned")
	} else {
		logger.Printf("loaded %d enrollments", snapshot.Len())
	}
	snapshot.Start(ctx)
	defer snapshot.Stop()

	// Services
	registry := service.NewReaderRegistry(readerStore)
	attendance := service.NewAttendanceService(service.AttendanceDeps{
		Ledger:   ledger,
		Snapshot: snapshot,
		Location: loc,
		Logger:   logger,
		Metrics:  m,
		OnRecorded: func(act types.Action) {
			logger.Printf("attendance recorded: %s %s (%s)", act.Kind, act.DisplayName, act.IdentityID)
		},
	})
	adapter := service.NewCaptureAdapter(service.CaptureAdapterDeps{
		Snapshot:       snapshot,
		Matcher:        service.TemplateMatcher{},
		Attendance:     attendance,
		Readers:        registry,
		Logger:         logger,
		Metrics:        m,
		QueueSize:      cfg.CaptureQueueSize,
		ExitAfterMatch: cfg.ExitAfterMatch,
	})

	// HTTP
	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:  logger,
		Addr:    cfg.HTTPAddr,
		Adapter: adapter,
		Ledger:  ledger,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := adapter.Run(gctx)
		// ExitAfterMatch: a nil return means the session is complete
		// and the whole process should wind down.
		stop()
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		logger.Printf("listening on %s", cfg.HTTPAddr)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatalf("kiosk error: %v", err)
	}
}
