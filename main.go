package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"tweetbot/api"
	"tweetbot/archive"
	"tweetbot/composer"
	"tweetbot/config"
	"tweetbot/events"
	"tweetbot/feed"
	"tweetbot/media"
	"tweetbot/publisher"
	"tweetbot/resurface"
	"tweetbot/scheduler"
	"tweetbot/store"

	"github.com/joho/godotenv"
)

func main() {
	once := flag.Bool("once", false, "run one poll+resurface cycle and exit")
	flag.Parse()

	log.SetOutput(os.Stderr)

	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	st, err := store.Open(cfg.DataDir)
	if err != nil {
		log.Fatalf("failed to open dedup store: %v", err)
	}
	log.Printf("dedup store loaded: %d publish record(s)", st.Count())

	if cfg.RedisAddr != "" {
		mirror, err := store.NewRedisMirror(store.MirrorConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			TTL:      cfg.Cooldown,
		})
		if err != nil {
			log.Printf("Warning: redis mirror disabled: %v", err)
		} else {
			st.SetMirror(mirror)
			defer mirror.Close()
			log.Printf("redis duplicate mirror enabled at %s", cfg.RedisAddr)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	source, marker, err := buildSource(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to build feed source: %v", err)
	}

	var client publisher.Client
	if cfg.DryRun {
		log.Println("DRY_RUN=1: posts will be logged, not submitted")
		client = publisher.NewDryRunClient()
	} else {
		client = publisher.NewXClient(publisher.XConfig{
			ClientID:     cfg.XClientID,
			ClientSecret: cfg.XClientSecret,
			RefreshToken: cfg.XRefreshToken,
			Timeout:      config.DefaultRequestTimeout,
		})
	}

	comp := composer.New(cfg.YouTubeURL)
	resolver := media.NewResolver(client, config.DefaultRequestTimeout)
	executor := publisher.NewExecutor(client, comp, st, resolver)
	selector := resurface.New(st, client, cfg.Cooldown, cfg.ResurfaceLook)

	var producer *events.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer, err = events.NewProducer(events.ProducerConfig{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic})
		if err != nil {
			log.Printf("Warning: outcome events disabled: %v", err)
		} else {
			defer producer.Close()
			log.Printf("outcome events -> kafka topic %s", cfg.KafkaTopic)
		}
	}

	var archiver scheduler.Archiver
	if cfg.S3Bucket != "" {
		s3a, err := archive.NewS3Archive(ctx, archive.S3Config{
			Bucket:  cfg.S3Bucket,
			Region:  cfg.S3Region,
			Profile: cfg.S3Profile,
			Prefix:  cfg.S3Prefix,
		})
		if err != nil {
			log.Printf("Warning: S3 archive disabled: %v", err)
		} else {
			archiver = s3a
			log.Printf("archiving published posts to s3://%s/%s", cfg.S3Bucket, cfg.S3Prefix)
		}
	} else {
		log.Println("S3 not configured; archiving disabled")
	}

	tracker := api.NewTracker()
	loop := scheduler.New(cfg, source, marker, executor, selector, st, producer, archiver, tracker)

	if *once || !cfg.ScheduleMode {
		// One-shot mode for external schedulers: a cycle with zero new
		// items is still a success.
		loop.RunCycle(context.WithoutCancel(ctx), "once")
		return
	}

	// Keepalive/health server, runs alongside the loop
	go func() {
		addr := ":" + cfg.Port
		log.Printf("Starting API server on %s", addr)
		if err := http.ListenAndServe(addr, api.NewRouter(tracker, st)); err != nil {
			log.Printf("api server error: %v", err)
		}
	}()

	if err := loop.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("scheduler stopped: %v", err)
	}
}

// buildSource selects the configured feed implementation. The Blogger API
// source doubles as the label write-back marker; RSS cannot mark.
func buildSource(ctx context.Context, cfg *config.Config) (feed.Source, feed.Marker, error) {
	if cfg.FeedSource == "blogger" {
		src, err := feed.NewBloggerSource(ctx, feed.BloggerConfig{
			BlogURL:      cfg.BlogURL,
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RefreshToken: cfg.RefreshToken,
			Timeout:      config.DefaultRequestTimeout,
		})
		if err != nil {
			return nil, nil, err
		}
		return src, src, nil
	}
	return feed.NewRSSSource(cfg.BlogURL, config.DefaultRequestTimeout), nil, nil
}
