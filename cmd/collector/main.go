package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/project-tktt/salary-stats/internal/common/cleaner"
	"github.com/project-tktt/salary-stats/internal/common/logger"
	"github.com/project-tktt/salary-stats/internal/config"
	"github.com/project-tktt/salary-stats/internal/module"
	"github.com/project-tktt/salary-stats/internal/module/aggregator"
	"github.com/project-tktt/salary-stats/internal/module/hh"
	"github.com/project-tktt/salary-stats/internal/module/superjob"
	"github.com/project-tktt/salary-stats/internal/queue"
	"github.com/project-tktt/salary-stats/internal/report"
)

func main() {
	source := flag.String("source", "all", "Source to query: hh, superjob or all")
	showProgress := flag.Bool("progress", false, "Show a progress bar per source")
	flag.Parse()

	cfg := config.Load()
	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	terms := cleaner.NewCleaner().CleanTerms(cfg.Terms)
	if len(terms) == 0 {
		log.Error("no search terms configured")
		os.Exit(2)
	}

	crawlers, err := buildCrawlers(*source, cfg, log)
	if err != nil {
		log.Error("configure sources", "error", err)
		os.Exit(2)
	}

	var publisher *queue.Publisher
	if cfg.Redis.Publish {
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
		publisher = queue.NewPublisher(rdb, cfg.Redis.ReportQueue)
	}

	failed := false
	for _, c := range crawlers {
		if err := collect(ctx, c, terms, cfg, publisher, *showProgress, log); err != nil {
			failed = true
		}
	}

	if failed {
		os.Exit(1)
	}
}

func buildCrawlers(source string, cfg *config.Config, log *slog.Logger) ([]*module.Crawler, error) {
	crawlerCfg := module.Config{
		RequestDelay: cfg.Crawler.RequestDelay,
		Timeout:      cfg.Crawler.Timeout,
		UserAgent:    cfg.Crawler.UserAgent,
	}

	var crawlers []*module.Crawler

	if source == "all" || source == "hh" {
		hhCfg := crawlerCfg
		hhCfg.MaxPages = cfg.HH.MaxPages
		crawlers = append(crawlers, module.NewCrawler(hh.NewSource(hh.Config{
			BaseURL:    cfg.HH.BaseURL,
			Area:       cfg.HH.Area,
			Occupation: cfg.HH.Occupation,
			PerPage:    cfg.HH.PerPage,
		}), hhCfg, log))
	}

	if source == "all" || source == "superjob" {
		sj, err := superjob.NewSource(cfg.SuperJob.SecretKey, superjob.Config{
			BaseURL: cfg.SuperJob.BaseURL,
			Town:    cfg.SuperJob.Town,
			PerPage: cfg.SuperJob.PerPage,
		})
		switch {
		case err != nil && source == "superjob":
			return nil, err
		case err != nil:
			log.Warn("skipping superjob", "reason", err)
		default:
			sjCfg := crawlerCfg
			sjCfg.MaxPages = cfg.SuperJob.MaxPages
			crawlers = append(crawlers, module.NewCrawler(sj, sjCfg, log))
		}
	}

	if len(crawlers) == 0 {
		return nil, fmt.Errorf("unknown source %q", source)
	}
	return crawlers, nil
}

// collect runs one source over all terms, renders its table and optionally publishes it
func collect(ctx context.Context, c *module.Crawler, terms []string, cfg *config.Config, publisher *queue.Publisher, showProgress bool, log *slog.Logger) error {
	aggCfg := aggregator.Config{
		Concurrency: cfg.Aggregator.Concurrency,
		FailFast:    cfg.Aggregator.FailFast,
	}

	var progress *report.Progress
	if showProgress {
		progress = report.NewProgress(os.Stderr, string(c.Name()), len(terms))
		aggCfg.OnTerm = progress.OnTerm
	}

	rep, err := aggregator.NewAggregator(c, aggCfg, log).Run(ctx, terms)
	if progress != nil {
		progress.Finish()
	}
	if rep == nil {
		attrs := []any{"source", c.Name(), "error", err}
		if progress != nil {
			attrs = append(attrs, "terms_done", progress.Current())
		}
		log.Error("collection aborted", attrs...)
		return err
	}
	if err != nil {
		log.Warn("some terms failed", "source", c.Name(), "error", err)
	}

	if rerr := report.Render(os.Stdout, report.Title(c.Name()), rep.Table); rerr != nil {
		log.Error("render failed", "error", rerr)
	}

	if publisher != nil {
		n, perr := publisher.PublishReport(ctx, rep)
		if perr != nil {
			log.Error("publish failed", "source", c.Name(), "error", perr)
			return perr
		}
		log.Info("snapshots published", "source", c.Name(), "run_id", rep.RunID, "count", n)
	}

	return err
}
