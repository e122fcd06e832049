// Package app builds the services from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"virtualtourist/internal/cache"
	"virtualtourist/internal/config"
	"virtualtourist/internal/download"
	"virtualtourist/internal/service"
	"virtualtourist/internal/storage"
	"virtualtourist/internal/store"
	"virtualtourist/pkg/flickr"
	"virtualtourist/pkg/kafkaclient"
	"virtualtourist/pkg/location"
)

// App holds the wired services and the resources they share.
type App struct {
	Config *config.ServiceConfig
	Store  store.Store
	Images storage.ImageStore
	Maps   *service.MapService
	Albums *service.AlbumService

	inline   *service.InlineNotifier
	producer *kafkaclient.KafkaProducer
	redis    *redis.Client
}

// Build connects the store, the image backend and the optional Redis cache
// and Kafka producer. Without a Kafka broker albums are fetched in-process.
func Build(ctx context.Context, cfg *config.ServiceConfig) (_ *App, err error) {
	a := &App{Config: cfg}
	defer func() {
		if err != nil {
			if cerr := a.Close(); cerr != nil {
				slog.Error("failed to release resources after setup error", "error", cerr)
			}
		}
	}()

	a.Store, err = store.NewStore(ctx, cfg.Database.Type, cfg.Database.ConnectionString)
	if err != nil {
		return nil, err
	}

	a.Images, err = newImageStore(ctx, cfg, a.Store)
	if err != nil {
		return nil, err
	}

	opts := []download.Option{}
	if cfg.RedisEnabled() {
		a.redis, err = cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		opts = append(opts, download.WithCache(cache.NewImageCache(a.redis, cfg.Redis.TTL)))
	}
	fetcher := download.NewDownloader(cfg.Album.DownloadTimeout, cfg.Album.MaxConcurrentDownloads, opts...)

	if cfg.Flickr.APIKey == "" {
		slog.Warn("no Flickr API key configured, photo searches will fail")
	}
	searcher := flickr.NewSearchService(flickr.NewClient(cfg.Flickr.APIKey, cfg.Flickr.Endpoint), flickr.Options{
		PerPage: cfg.Flickr.PerPage,
		MaxPage: cfg.Flickr.MaxPage,
		Sort:    cfg.Flickr.Sort,
		Size:    cfg.Flickr.Size,
	})

	a.Albums = service.NewAlbumService(a.Store, a.Images, searcher, fetcher, service.AlbumOptions{
		Prefetch:       cfg.Album.Prefetch,
		Placeholder:    cfg.Album.Placeholder,
		ThumbnailWidth: cfg.Album.ThumbnailWidth,
	})

	var notifier service.Notifier
	if cfg.KafkaEnabled() {
		a.producer = kafkaclient.NewKafkaProducer(cfg.Kafka.Topic, cfg.Kafka.Broker)
		notifier = service.NewEventNotifier(a.producer)
		slog.Info("publishing pin events", "broker", cfg.Kafka.Broker, "topic", cfg.Kafka.Topic)
	} else {
		a.inline = service.NewInlineNotifier(a.Albums, albumTimeout(cfg))
		notifier = a.inline
	}

	var geocoder service.Geocoder
	if cfg.Geocoder.Endpoint != "" {
		geocoder = location.NewGeocoder(cfg.Geocoder.Endpoint, cfg.Geocoder.UserAgent, cfg.Geocoder.Language)
	}
	a.Maps = service.NewMapService(a.Store, a.Images, geocoder, notifier)
	return a, nil
}

func newImageStore(ctx context.Context, cfg *config.ServiceConfig, s store.Store) (storage.ImageStore, error) {
	switch cfg.Images.Backend {
	case config.ImagesS3:
		return storage.NewS3Images(ctx, storage.S3Config{
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			UseSSL:    cfg.S3.UseSSL,
			Bucket:    cfg.Images.Bucket,
			Region:    cfg.Images.Region,
		}, s)
	case config.ImagesDatabase, "":
		return storage.NewDatabaseImages(s), nil
	default:
		return nil, fmt.Errorf("unsupported image backend: %s", cfg.Images.Backend)
	}
}

// albumTimeout bounds a background album fetch by one download timeout for
// the search and one per round of prefetched downloads. A page of perPage
// URLs takes ceil(perPage/maxConcurrentDownloads) rounds; no limit means one.
func albumTimeout(cfg *config.ServiceConfig) time.Duration {
	rounds := 1
	if limit := cfg.Album.MaxConcurrentDownloads; limit > 0 {
		rounds = (cfg.Flickr.PerPage + limit - 1) / limit
	}
	return cfg.Album.DownloadTimeout * time.Duration(rounds+1)
}

// Close waits for background album fetches and releases every resource.
func (a *App) Close() error {
	if a.inline != nil {
		a.inline.Wait()
	}

	var errs []error
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close kafka producer: %w", err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	return errors.Join(errs...)
}

// NewWorker returns a worker consuming the pin topic. The caller starts the
// consumer and stops it on shutdown.
func (a *App) NewWorker() (*service.Worker, *kafkaclient.KafkaConsumer, error) {
	if !a.Config.KafkaEnabled() {
		return nil, nil, errors.New("no Kafka broker configured: set KAFKA_BROKER")
	}
	consumer, err := kafkaclient.NewKafkaConsumer(a.Config.Kafka.Topic, a.Config.Kafka.GroupID, a.Config.Kafka.Broker)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create kafka consumer: %w", err)
	}
	return service.NewWorker(consumer, a.Store, a.Albums), consumer, nil
}
