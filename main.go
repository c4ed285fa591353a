package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"portfolioCache/internal/application"
	"portfolioCache/internal/domain/entity"
	"portfolioCache/internal/domain/repository"
	"portfolioCache/internal/infrastructure/activity"
	"portfolioCache/internal/infrastructure/blog"
	"portfolioCache/internal/infrastructure/devpad"
	"portfolioCache/internal/infrastructure/httpclient"
	"portfolioCache/internal/infrastructure/storage"
	"portfolioCache/internal/interfaces/config"
	"portfolioCache/internal/interfaces/web"
	plog "portfolioCache/internal/log"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, cfgErr := config.LoadConfig()
	plog.SetLevel(cfg.LogLevel)

	logger := plog.New("portfolio")
	if cfgErr != nil {
		logger.Error("configuration error", "err", cfgErr)
	}
	for _, problem := range cfg.Problems() {
		logger.Warn(problem)
	}

	serve := &cli.Command{
		Name:  "serve",
		Usage: "serve the cached portfolio data over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "listen address",
				Value: cfg.ListenAddr,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runServe(ctx, cfg, cmd.String("addr"))
		},
	}

	cmd := &cli.Command{
		Name:  "portfolio",
		Usage: "portfolio data aggregation and caching",
		Commands: []*cli.Command{
			serve,
			{
				Name:  "timeline",
				Usage: "fetch the activity feed once and print the timeline as JSON",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "group",
						Usage: "collapse consecutive commits into batches",
						Value: true,
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runTimeline(ctx, cfg, cmd.Bool("group"))
				},
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runServe(ctx, cfg, cfg.ListenAddr)
		},
	}

	ctx := plog.IntoContext(context.Background(), logger)
	if err := cmd.Run(ctx, os.Args); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

type app struct {
	caches  *application.CacheRegistry
	service *application.PortfolioService
}

func setup(cfg *config.Config, logger *slog.Logger) (*app, error) {
	client := httpclient.New(httpclient.Config{
		Timeout:        cfg.GetHTTPTimeout(),
		Attempts:       cfg.HTTPAttempts,
		MaxPermits:     cfg.MaxPermits,
		RefillInterval: cfg.GetRefillInterval(),
		Logger:         plog.SubLogger(logger, "http"),
	})

	projectRepo := devpad.NewProjectRepository(devpad.Config{
		BaseURL: cfg.DevpadURL,
		APIKey:  cfg.DevpadAPIKey,
		Client:  client,
	})

	var blogRepos []repository.BlogRepository
	if cfg.BlogAPIURL != "" {
		blogRepos = append(blogRepos, blog.NewDevRepository(cfg.BlogAPIURL, cfg.BlogAPIKey, client))
	}
	feedURL := cfg.DevToFeedURL
	if feedURL == "" && cfg.DevToUsername != "" {
		feedURL = blog.DevToFeedURL(cfg.DevToUsername)
	}
	if feedURL != "" {
		blogRepos = append(blogRepos, blog.NewDevToRepository(feedURL, client))
	}

	activityRepo := activity.NewFeedRepository(activity.Config{
		URL:    cfg.ActivityURL,
		APIKey: cfg.ActivityAPIKey,
		Client: client,
		Logger: plog.SubLogger(logger, "activity"),
	})

	caches := application.NewCacheRegistry(application.RegistryConfig{
		ProjectsInterval:  cfg.GetProjectsInterval(),
		PostsInterval:     cfg.GetBlogInterval(),
		ActivityInterval:  cfg.GetTimelineInterval(),
		RevalidateTimeout: cfg.GetRevalidateTimeout(),
		Logger:            plog.SubLogger(logger, "cache"),
	}, projectRepo, blogRepos, activityRepo)

	pointCfg := storage.DefaultPointCacheConfig()
	pointCfg.TTL = cfg.GetPointCacheTTL()
	pointCache, err := storage.NewPointCache[entity.Project](pointCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create project point cache: %w", err)
	}

	service := application.NewPortfolioService(caches, projectRepo, pointCache, plog.SubLogger(logger, "service"))
	return &app{caches: caches, service: service}, nil
}

func runServe(ctx context.Context, cfg *config.Config, addr string) error {
	logger := plog.FromContext(ctx)

	a, err := setup(cfg, logger)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           web.NewServer(a.service, plog.SubLogger(logger, "web")).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "address", addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "err", err)
	}

	a.caches.Wait()
	logger.Info("shut down")
	return nil
}

func runTimeline(ctx context.Context, cfg *config.Config, group bool) error {
	a, err := setup(cfg, plog.FromContext(ctx))
	if err != nil {
		return err
	}

	activities := a.service.FetchTimeline(ctx)
	if a.service.IsTimelineCacheInvalid() {
		return errors.New("activity feed could not be fetched")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(web.NewEntries(a.service.GetTimeline(activities, group), time.Now()))
}
