package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"codeberg.org/mutker/fanmon/internal/api"
	"codeberg.org/mutker/fanmon/internal/broker"
	"codeberg.org/mutker/fanmon/internal/config"
	"codeberg.org/mutker/fanmon/internal/faultlog"
	"codeberg.org/mutker/fanmon/internal/gpio"
	"codeberg.org/mutker/fanmon/internal/gpu"
	"codeberg.org/mutker/fanmon/internal/inventory"
	"codeberg.org/mutker/fanmon/internal/logger"
	"codeberg.org/mutker/fanmon/internal/monitor"
	"codeberg.org/mutker/fanmon/internal/objcache"
	"codeberg.org/mutker/fanmon/internal/pid"
	"codeberg.org/mutker/fanmon/internal/presence"
	"codeberg.org/mutker/fanmon/internal/timer"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

const disconnectQuiesceMS = 250

var cfg *config.Config

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Printf("invalid log level: %v\n", err)
		os.Exit(1)
	}
	logger.Init(level, logger.IsService())
	logger.Debug().Str("mode", cfg.Mode).Msg("Config loaded")

	if level != logger.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
}

func main() {
	if err := pid.Write(cfg.PIDDir); err != nil {
		logger.Fatal().Err(err).Msg("failed to write pid file")
	}

	ctx, cancel := context.WithCancel(context.Background())
	go handleSignals(cancel)

	err := run(ctx)
	cancel()

	if rmErr := pid.Remove(cfg.PIDDir); rmErr != nil {
		logger.Warn().Err(rmErr).Msg("failed to remove pid file")
	}
	if err != nil {
		logger.Error().Err(err).Msg("fanmon stopped with error")
		os.Exit(1)
	}
	logger.Info().Msg("Exiting...")
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

// deps holds everything built from configuration, before any goroutine runs.
type deps struct {
	cache  *objcache.Cache
	router *objcache.Router
	loop   *timer.Loop
	store  *inventory.Store
	sinks  inventory.Multi
	client mqtt.Client
	fans   []monitor.FanParams
	engine *presence.Engine
}

func run(ctx context.Context) error {
	d, err := build()
	if err != nil {
		return err
	}
	if d.client != nil {
		defer d.client.Disconnect(disconnectQuiesceMS)
	}

	if config.Mode(cfg.Mode) == config.ModeInit {
		monitor.NewSystem(d.loop, d.fans, d.sinks, nil).Init()
		return nil
	}

	return monitorMode(ctx, d)
}

func build() (*deps, error) {
	d := &deps{
		cache: objcache.New(),
		loop:  timer.NewLoop(0),
		store: inventory.NewStore(),
	}
	d.router = objcache.NewRouter(d.cache)
	d.sinks = inventory.Multi{d.store}

	var err error
	if cfg.MonitorConfig != "" {
		if d.fans, err = monitor.LoadDocument(cfg.MonitorConfig); err != nil {
			return nil, err
		}
	}

	if cfg.MQTT.Enabled {
		d.client, err = broker.Connect(cfg.MQTT.Endpoint, cfg.MQTT.ClientID,
			broker.WithConnectTimeout(cfg.MQTTConnectTimeout()))
		if err != nil {
			return nil, err
		}
		d.sinks = append(d.sinks, inventory.NewPublisher(d.client, cfg.MQTT.TopicPrefix))
	}

	if config.Mode(cfg.Mode) == config.ModeMonitor && cfg.PresenceConfig != "" {
		decls, err := presence.LoadDocument(cfg.PresenceConfig)
		if err != nil {
			return nil, err
		}
		if d.engine, err = presence.NewAssembler(d.cache, gpio.NewReader()).Assemble(decls); err != nil {
			return nil, err
		}
	}

	return d, nil
}

func monitorMode(ctx context.Context, d *deps) error {
	faults, err := faultlog.NewService(faultlog.Config{
		Enabled:       cfg.FaultLog.Enabled,
		DBPath:        cfg.FaultLog.DBPath,
		BatchSize:     cfg.FaultLog.BatchSize,
		FlushInterval: cfg.FaultFlushInterval(),
	})
	if err != nil {
		return err
	}

	sys := monitor.NewSystem(d.loop, d.fans, d.sinks, faults)
	for _, obj := range sys.Watch(d.cache) {
		d.router.Subscribe(obj)
	}

	var poller *presence.Poller
	if d.engine != nil {
		for _, obj := range d.engine.Objects() {
			d.router.Subscribe(obj)
		}
		poller = presence.NewPoller(d.loop, d.engine, cfg.PresencePollInterval(), d.sinks, sys.SetFanPresent)
	}

	if d.client != nil {
		sub := broker.NewSubscriber(d.client, cfg.MQTT.TopicPrefix, d.loop, d.router)
		if err := sub.Start(); err != nil {
			return err
		}
		defer sub.Stop()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return d.loop.Run(gctx) })
	g.Go(func() error { return faults.Run(gctx) })

	if cfg.NVML.Enabled {
		src := gpu.NewSource(cfg.NVMLPollInterval(), d.loop, d.cache)
		g.Go(func() error {
			if err := src.Run(gctx); err != nil {
				logger.Warn().Err(err).Msg("GPU tach source stopped")
			}
			return nil
		})
	}

	if cfg.HTTP.Enabled {
		handler := api.NewRouter(d.store, faults)
		g.Go(func() error { return api.Serve(gctx, cfg.HTTP.Listen, handler) })
	}

	d.loop.Post(func() {
		sys.Start()
		if poller != nil {
			poller.Start()
		}
	})

	err = g.Wait()

	// The loop has returned, so timers can be stopped from here.
	if poller != nil {
		poller.Stop()
	}
	sys.Stop()

	return err
}
