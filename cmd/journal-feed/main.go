// Утилита для ручной проверки фид-ядра: грузит ленту из настроенного
// сервиса, печатает записи и (опционально) отдаёт метрики по HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	journal "github.com/kruglovaa/go-journal-feed"
	"github.com/kruglovaa/go-journal-feed/internal/config"
	"github.com/kruglovaa/go-journal-feed/internal/models"
	"github.com/kruglovaa/go-journal-feed/pkg/log"
)

// Константы для определения окружения.
const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	var (
		configPath  string
		view        string
		tag         string
		category    string
		pages       int
		metricsAddr string
	)
	flag.StringVar(&configPath, "config", "", "path to config file (overrides CONFIG_PATH env)")
	flag.StringVar(&view, "view", "latest", "feed view name")
	flag.StringVar(&tag, "tag", "", "filter by tag")
	flag.StringVar(&category, "category", "", "filter by category")
	flag.IntVar(&pages, "pages", 1, "number of pages to fetch")
	flag.StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (empty = off)")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	lg := setupLogger(cfg.Env)
	slog.SetDefault(lg)
	lg.Info("starting journal-feed", "env", cfg.Env, "view", view)

	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()

	ctx := log.Into(rootCtx, lg)

	client, err := journal.New(*cfg)
	if err != nil {
		lg.Error("client_init_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = client.Close() }()

	if user, ok := client.Resolve(ctx).User(); ok {
		lg.Info("session_restored", slog.String("username", user.Username))
	}

	if metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(client.Metrics(), promhttp.HandlerOpts{}))
			if err := http.ListenAndServe(metricsAddr, mux); err != nil {
				lg.Error("metrics_serve_failed", slog.String("err", err.Error()))
			}
		}()
		lg.Info("metrics_listen_start", slog.String("addr", metricsAddr))
	}

	feed := client.Feed(view)

	if err := feed.Load(ctx); err != nil {
		lg.Error("feed_load_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	switch {
	case tag != "":
		err = feed.SelectFacet(ctx, models.Facet{Kind: models.FacetTag, Value: tag})
	case category != "":
		err = feed.SelectFacet(ctx, models.Facet{Kind: models.FacetCategory, Value: category})
	}
	if err != nil {
		lg.Error("facet_select_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	for p := 1; p < pages; p++ {
		if err := feed.LoadMore(ctx); err != nil {
			lg.Warn("feed_load_more_failed", slog.Int("page", p+1), slog.String("err", err.Error()))
			break
		}
	}

	snap := feed.Snapshot()
	for i, e := range snap.Entries {
		fmt.Printf("%3d. %s — %s (likes: %d)\n", i+1, e.Title, e.Author.Username, e.LikeCount)
	}
	fmt.Printf("page %d, has more: %v\n", snap.Page, snap.HasMore)

	lg.Info("done", slog.Int("entries", len(snap.Entries)))
}

// setupLogger настраивает slog по окружению.
func setupLogger(env string) *slog.Logger {
	var lg *slog.Logger

	switch env {
	case envLocal:
		lg = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		lg = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		lg = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		lg = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	}

	return lg
}
