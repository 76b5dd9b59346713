package main

import (
	"context"
	"fmt"
	logger "log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ardanlabs/conf"
	"github.com/nats-io/nats.go"

	"github.com/transitcast/core/app/avl-processor/avlcore"
	"github.com/transitcast/core/app/avl-processor/avlfeed"
	"github.com/transitcast/core/business/data/avl"
	"github.com/transitcast/core/business/data/eventsink"
	"github.com/transitcast/core/business/data/matchprocessor"
	"github.com/transitcast/core/business/data/schedulestore"
	"github.com/transitcast/core/business/data/vehiclecache"
	"github.com/transitcast/core/foundation/database"
)

var build = "develop"

func main() {
	log := logger.New(os.Stdout, "AVL_PROCESSOR : ", logger.LstdFlags|logger.Lmicroseconds|logger.Lshortfile)
	if err := run(log); err != nil {
		log.Printf("main: error: %v", err)
		os.Exit(1)
	}
}

func run(log *logger.Logger) error {
	var cfg struct {
		conf.Version
		Args conf.Args
		DB   struct {
			User       string `conf:"default:postgres"`
			Password   string `conf:"default:postgres,noprint"`
			Host       string `conf:"default:0.0.0.0"`
			Name       string `conf:"default:postgres"`
			DisableTLS bool   `conf:"default:true"`
		}
		NATS struct {
			URL           string `conf:"default:nats://0.0.0.0:4222"`
			ReportSubject string `conf:"default:avl.reports"`
			EventSubject  string `conf:"default:avl.events"`
		}
		Web struct {
			Port int `conf:"default:3500"`
		}
		Processing struct {
			Workers             int `conf:"default:8"`
			FeedBufferSize      int `conf:"default:256"`
			MaxStaleSeconds     int `conf:"default:900"`
			TimeoutSweepSeconds int `conf:"default:30"`
			EventFlushSeconds   int `conf:"default:5"`
		}
	}
	cfg.Version.SVN = build
	cfg.Version.Desc = "Match AVL reports to scheduled block positions and compute real-time schedule adherence"
	const prefix = "AVLPROC"
	if err := conf.Parse(os.Args[1:], prefix, &cfg); err != nil {
		switch err {
		case conf.ErrHelpWanted:
			usage, err := conf.Usage(prefix, &cfg)
			if err != nil {
				return fmt.Errorf("generating config usage: %w", err)
			}
			fmt.Println(usage)
			return nil
		case conf.ErrVersionWanted:
			version, err := conf.VersionString(prefix, &cfg)
			if err != nil {
				return fmt.Errorf("generating config version: %w", err)
			}
			fmt.Println(version)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	log.Printf("main : Started : Application initializing : version %s", build)
	defer log.Println("main: Completed")

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Printf("main: Config :\n%v\n", out)

	log.Println("main: Initializing database support")
	db, err := database.Open(database.Config{
		User:       cfg.DB.User,
		Password:   cfg.DB.Password,
		Host:       cfg.DB.Host,
		Name:       cfg.DB.Name,
		DisableTLS: cfg.DB.DisableTLS,
	})
	if err != nil {
		return fmt.Errorf("connecting to db: %w", err)
	}
	defer func() {
		log.Printf("main: Database Stopping : %s", cfg.DB.Host)
		if err := db.Close(); err != nil {
			log.Printf("main: error closing database: %v", err)
		}
	}()

	log.Println("main: Connecting to NATS")
	nc, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("connecting to nats: %w", err)
	}
	defer nc.Close()

	schedule := schedulestore.NewStore(db, log)
	schedule.Holidays = schedulestore.NewHolidayCalendar()

	vehicles := avlcore.NewVehicleStateStore()
	cache := vehiclecache.New()
	matches := matchprocessor.New(log)
	sink := eventsink.New(log, db, nc, cfg.NATS.EventSubject)

	avlConfig := avlcore.DefaultConfig()
	avlConfig.MaxStaleAge = time.Duration(cfg.Processing.MaxStaleSeconds) * time.Second

	processor := avlcore.NewProcessor(avlConfig, schedule, vehicles, sink, matches, cache, log)
	clock := avlcore.NewTimeoutClock(log, vehicles, processor,
		avlConfig.MaxStaleAge, time.Duration(cfg.Processing.TimeoutSweepSeconds)*time.Second)

	feed := avlfeed.NewSubscriber(log, nc, cfg.NATS.ReportSubject, cfg.Processing.FeedBufferSize)
	if err := feed.Start(); err != nil {
		return fmt.Errorf("starting avl feed subscription: %w", err)
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	workerShutdown := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(cfg.Processing.Workers)
	for i := 0; i < cfg.Processing.Workers; i++ {
		go func() {
			defer wg.Done()
			runWorker(processor, feed.Reports())
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		clock.Run(workerShutdown)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		runEventFlushLoop(log, sink, time.Duration(cfg.Processing.EventFlushSeconds)*time.Second, workerShutdown)
	}()

	srv := vehiclecache.NewServer(cache, cfg.Web.Port)
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("main: starting vehicle cache server on port %d", cfg.Web.Port)
		if err := srv.ListenAndServe(); err != nil {
			log.Printf("main: vehicle cache server ended: %v", err)
		}
	}()

	<-shutdown
	log.Printf("main: shutdown signal received")
	feed.Stop()
	close(workerShutdown)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("main: error shutting down vehicle cache server: %v", err)
	}

	wg.Wait()
	return nil
}

// runWorker drains reports off ch, processing each one at a time, until ch
// is closed by the feed subscriber on shutdown.
func runWorker(processor *avlcore.Processor, ch <-chan avl.Report) {
	for report := range ch {
		r := report
		processor.ProcessReport(&r)
	}
}

// runEventFlushLoop periodically flushes the durable event sink so batched
// rows don't wait indefinitely for batchSize to fill during quiet periods.
func runEventFlushLoop(log *logger.Logger, sink *eventsink.Sink, interval time.Duration, shutdownSignal <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-shutdownSignal:
			if err := sink.Flush(); err != nil {
				log.Printf("eventsink: final flush error: %v", err)
			}
			return
		case <-ticker.C:
			if err := sink.Flush(); err != nil {
				log.Printf("eventsink: periodic flush error: %v", err)
			}
		}
	}
}
