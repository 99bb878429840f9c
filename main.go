package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/time/rate"
	"gopkg.in/natefinch/lumberjack.v2"

	"fkstream/config"
	"fkstream/handlers"
	"fkstream/internal/database"
	"fkstream/services/debrid"
	"fkstream/services/metadata"
	"fkstream/services/sources"
	"fkstream/services/stream"
	"fkstream/utils"
)

func main() {
	settings, err := config.Load()
	if err != nil {
		log.Fatalf("[main] config: %v", err)
	}

	if settings.LogFile != "" {
		log.SetOutput(&lumberjack.Logger{
			Filename:   settings.LogFile,
			MaxSize:    20, // MB
			MaxBackups: 3,
			MaxAge:     14, // days
		})
	}

	db, err := database.NewDB(database.Config{DatabasePath: settings.DatabasePath})
	if err != nil {
		log.Fatalf("[main] database: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db.StartSweeper(ctx)
	defer db.StopSweeper()

	store := sources.NewStore(sources.Options{
		DatasetURL: settings.FankaiURL + "/series?paginate=false",
		APIKey:     settings.APIKey,
		CustomURL:  settings.CustomSourceURL,
		CustomPath: settings.CustomSourcePath,
		Interval:   settings.CustomSourceInterval,
	}, nil, afero.NewOsFs())
	if err := store.LoadDataset(ctx); err != nil {
		log.Fatalf("[main] dataset: %v", err)
	}
	store.LoadCustom(ctx)
	store.StartCustomRefresh(ctx)
	defer store.Stop()

	metadataSvc := metadata.NewService(
		metadata.NewClient(settings.FankaiURL, nil),
		db.Repository,
		metadata.Options{
			MetadataTTL: settings.MetadataTTL,
			LockTTL:     settings.ScrapeLockTTL,
			WaitTimeout: settings.ScrapeWaitTimeout,
		},
	)
	availability := debrid.NewAvailabilityService(db.Repository, settings.DebridAvailabilityTTL)
	scraper := sources.NewScraper(db.Repository, nil, settings.CustomSourceTTL)

	baseURL := fmt.Sprintf("http://%s:%d", settings.Host, settings.Port)
	builder := stream.NewBuilder(metadataSvc, store, availability, scraper, baseURL)
	resolver := stream.NewResolver(metadataSvc)

	router := utils.NewRouter()
	limiter := utils.NewIPRateLimiter(rate.Every(time.Second), 10)
	handlers.RegisterRoutes(router, limiter,
		handlers.NewManifestHandler(metadataSvc, settings),
		handlers.NewCatalogHandler(metadataSvc, store),
		handlers.NewMetaHandler(metadataSvc),
		handlers.NewStreamHandler(builder, settings),
		handlers.NewPlaybackHandler(resolver, settings),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", settings.Host, settings.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[main] listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[main] server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("[main] shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[main] shutdown: %v", err)
	}
}
