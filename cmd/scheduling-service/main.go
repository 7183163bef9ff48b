package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/buildledger/scheduling/internal/archive"
	"github.com/buildledger/scheduling/internal/config"
	"github.com/buildledger/scheduling/internal/events"
	"github.com/buildledger/scheduling/internal/evm"
	"github.com/buildledger/scheduling/internal/httpserver"
	"github.com/buildledger/scheduling/internal/reports"
	"github.com/buildledger/scheduling/internal/schedule"
	"github.com/buildledger/scheduling/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		log.Fatalf("ping db: %v", err)
	}

	st := store.NewPGStore(db)

	var notifier events.Notifier = events.NopNotifier{}
	if len(cfg.KafkaBrokers) > 0 {
		kn, err := events.NewKafkaNotifier(events.KafkaNotifierConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
		})
		if err != nil {
			log.Fatalf("kafka notifier: %v", err)
		}
		defer kn.Close()
		notifier = kn
	}

	var archiver archive.Archiver = archive.NopArchiver{}
	if cfg.ArchiveBucket != "" {
		a, err := archive.NewS3Archiver(context.Background(), cfg.ArchiveBucket, cfg.ArchivePrefix)
		if err != nil {
			log.Fatalf("s3 archiver: %v", err)
		}
		archiver = a
	}

	engine := schedule.NewEngine(st, notifier)
	calc := evm.NewCalculator(st)
	reporter := reports.NewReporter(st)
	server := httpserver.New(engine, calc, reporter, archiver, st)

	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: server.Router(),
	}

	go func() {
		log.Printf("Scheduling service listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	waitForShutdown(httpServer)
}

func waitForShutdown(srv *http.Server) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
