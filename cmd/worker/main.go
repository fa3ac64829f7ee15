package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/project-tktt/salary-stats/internal/common/dedup"
	"github.com/project-tktt/salary-stats/internal/common/indexer"
	"github.com/project-tktt/salary-stats/internal/common/logger"
	"github.com/project-tktt/salary-stats/internal/config"
	"github.com/project-tktt/salary-stats/internal/module/worker"
	"github.com/project-tktt/salary-stats/internal/queue"
)

func main() {
	usePostgres := flag.Bool("postgres", true, "Store snapshots in PostgreSQL")
	useES := flag.Bool("elasticsearch", false, "Index snapshots into Elasticsearch")
	noDedup := flag.Bool("no-dedup", false, "Store every snapshot, even when statistics did not change")
	flag.Parse()

	cfg := config.Load()
	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	slog.SetDefault(log)
	log.Info("starting snapshot worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	log.Info("redis connected", "addr", cfg.Redis.Addr)

	var sinks indexer.Multi

	if *usePostgres {
		pg, err := indexer.NewPostgresIndexer(cfg.Postgres.ConnectionString, cfg.Postgres.TableName, log)
		if err != nil {
			log.Error("postgres connection failed", "error", err)
			os.Exit(1)
		}
		defer pg.Close()
		sinks = append(sinks, pg)
		log.Info("postgres connected", "table", cfg.Postgres.TableName)
	}

	if *useES {
		es, err := indexer.NewElasticsearchIndexer(cfg.Elasticsearch.Addresses, cfg.Elasticsearch.Index, log)
		if err != nil {
			log.Error("elasticsearch connection failed", "error", err)
			os.Exit(1)
		}
		if err := es.EnsureIndex(ctx); err != nil {
			log.Warn("ensure index failed", "error", err)
		}
		sinks = append(sinks, es)
		log.Info("elasticsearch connected", "index", cfg.Elasticsearch.Index)
	}

	if len(sinks) == 0 {
		log.Error("no storage backend enabled")
		os.Exit(2)
	}

	var dd worker.Deduplicator
	if !*noDedup {
		dd = dedup.NewDeduplicator(rdb, "stats:seen", 7*24*time.Hour)
	}

	consumer := queue.NewConsumer(rdb, cfg.Redis.ReportQueue, 5*time.Second)
	w := worker.NewWorker(consumer, dd, sinks, worker.Config{
		Concurrency: cfg.Worker.Concurrency,
		BatchSize:   cfg.Worker.BatchSize,
	}, log)

	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("worker stopped", "error", err)
		os.Exit(1)
	}
	log.Info("graceful shutdown complete")
}
