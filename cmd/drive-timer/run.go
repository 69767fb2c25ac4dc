package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sweeney/drive-timer/internal/config"
	"github.com/sweeney/drive-timer/internal/discovery"
	"github.com/sweeney/drive-timer/internal/gpio"
	"github.com/sweeney/drive-timer/internal/input"
	"github.com/sweeney/drive-timer/internal/logic"
	"github.com/sweeney/drive-timer/internal/metrics"
	"github.com/sweeney/drive-timer/internal/mqtt"
	"github.com/sweeney/drive-timer/internal/persist"
	"github.com/sweeney/drive-timer/internal/scheduler"
	"github.com/sweeney/drive-timer/internal/status"
	"github.com/sweeney/drive-timer/internal/storage"
	"github.com/sweeney/drive-timer/internal/storage/bolt"
	"github.com/sweeney/drive-timer/internal/storage/file"
	"github.com/sweeney/drive-timer/internal/storage/redis"
	"github.com/sweeney/drive-timer/internal/systemd"
	"github.com/sweeney/drive-timer/internal/web"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the compliance clock daemon",
	Args:  cobra.NoArgs,
	RunE:  runDaemon,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	log.Logger = logger

	logger.Info().
		Str("version", version).
		Str("config", configPath).
		Msg("starting drive-timer")

	store, err := openStorage(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close storage")
		}
	}()
	logger.Info().Str("type", cfg.Storage.Type).Msg("storage initialized")

	reader, buzzer, err := openGPIO(cfg, logger)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer reader.Close()
	defer buzzer.Close()

	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:      cfg.Poll.Milliseconds(),
		DebounceMs:  cfg.Debounce.Milliseconds(),
		TickMs:      cfg.TickInterval.Milliseconds(),
		HeartbeatMs: cfg.Heartbeat.Milliseconds(),
		Broker:      mqttBroker(cfg),
		HTTPAddr:    cfg.HTTP.Addr,
		Storage:     cfg.Storage.Type,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	m := metrics.New()

	sched := scheduler.NewLoop(16)
	defer sched.Close()

	engine := logic.NewEngine(scheduler.WallClock{}, sched, buzzer, tracker, cfg.TickInterval)
	persister := persist.NewPersister(store, logger)
	restoreState(context.Background(), engine, persister, cfg.Rules, logger)

	publisher, err := openMQTT(cfg, logger)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	d := &daemon{
		logger:     logger.With().Str("component", "loop").Logger(),
		engine:     engine,
		detector:   input.NewDetector(cfg.Debounce, cfg.ResetConfirmWindow),
		reader:     reader,
		buzzer:     buzzer,
		publisher:  publisher,
		mqttStatus: publisher,
		settings:   publisher.Settings(),
		tracker:    tracker,
		metrics:    m,
		persister:  persister,
		sched:      sched,
		now:        time.Now,
	}
	d.sync()
	d.publishSystem("STARTUP", "", true)

	if cfg.HTTP.Addr != "" {
		ln, err := systemd.HTTPListener()
		if err != nil {
			logger.Warn().Err(err).Msg("ignoring socket activation")
		}
		srv := web.New(cfg.HTTP.Addr, tracker, web.WithMetrics(m.Handler()), web.WithLogger(logger))
		srv.Start(ln)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				logger.Error().Err(err).Msg("error stopping http server")
			}
		}()

		if cfg.Discovery.Enabled {
			adv := startDiscovery(cfg, logger)
			if adv != nil {
				defer adv.Shutdown()
			}
		}
	}

	notifier := systemd.NewNotifier()
	d.notifier = notifier
	if err := notifier.Ready(); err != nil {
		logger.Warn().Err(err).Msg("ready notify failed")
	}
	defer func() {
		if err := notifier.Stopping(); err != nil {
			logger.Warn().Err(err).Msg("stopping notify failed")
		}
	}()

	logger.Info().
		Dur("poll", cfg.Poll).
		Dur("debounce", cfg.Debounce).
		Dur("tick", cfg.TickInterval).
		Dur("heartbeat", cfg.Heartbeat).
		Str("jurisdiction", engine.Settings().Jurisdiction.String()).
		Msg("started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	pollTicker := time.NewTicker(cfg.Poll)
	defer pollTicker.Stop()

	in := loopInputs{sig: sigCh, poll: pollTicker.C}
	if cfg.Heartbeat > 0 {
		t := time.NewTicker(cfg.Heartbeat)
		defer t.Stop()
		in.heartbeat = t.C
	}
	if cfg.Storage.CheckpointInterval > 0 {
		t := time.NewTicker(cfg.Storage.CheckpointInterval)
		defer t.Stop()
		in.checkpoint = t.C
	}
	if wd := systemd.WatchdogInterval(); wd > 0 {
		t := time.NewTicker(wd)
		defer t.Stop()
		in.watchdog = t.C
	}

	return d.runLoop(in)
}

// restoreState loads the persisted record into the engine. Without one the
// configured rules seed the settings.
func restoreState(ctx context.Context, engine *logic.Engine, p *persist.Persister, rules config.RulesConfig, logger zerolog.Logger) {
	if s, ok := p.Load(ctx); ok {
		engine.Restore(s)
		logger.Info().
			Int("drive", s.Drive.Seconds()).
			Int("rest", s.Rest.Seconds()).
			Bool("drive_running", s.Drive.Running).
			Bool("rest_running", s.Rest.Running).
			Str("jurisdiction", s.Settings.Jurisdiction.String()).
			Msg("state restored")
		return
	}

	j, _ := logic.ParseJurisdiction(rules.Jurisdiction)
	engine.Restore(logic.State{Settings: logic.Settings{Jurisdiction: j, Compact: rules.CompactDisplay}})
}

// openStorage creates the configured store backend.
func openStorage(cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Type {
	case "bolt":
		return bolt.Open(cfg.Storage.Path)
	case "file":
		return file.New(cfg.Storage.Path)
	case "redis":
		return redis.Open(cfg.Redis)
	}
	return nil, fmt.Errorf("unknown storage type %q", cfg.Storage.Type)
}

// openGPIO returns the hardware lines, or fakes that never press when GPIO
// is disabled.
func openGPIO(cfg *config.Config, logger zerolog.Logger) (gpio.ButtonReader, gpio.Buzzer, error) {
	if !cfg.GPIO.Enabled {
		logger.Warn().Msg("gpio disabled, buttons and buzzer are inert")
		return gpio.NewFakeReader([]gpio.Buttons{{}}), &gpio.FakeBuzzer{}, nil
	}

	pins := gpio.Pins{
		Drive:  cfg.GPIO.PinDrive,
		Rest:   cfg.GPIO.PinRest,
		Reset:  cfg.GPIO.PinReset,
		Buzzer: cfg.GPIO.PinBuzzer,
	}
	reader, err := gpio.NewRealReader(pins)
	if err != nil {
		return nil, nil, err
	}
	buzzer, err := gpio.NewRealBuzzer(pins.Buzzer, cfg.GPIO.BuzzerPulse, logger)
	if err != nil {
		reader.Close()
		return nil, nil, err
	}
	return reader, buzzer, nil
}

// mqttLink is everything the daemon needs from a broker connection.
type mqttLink interface {
	mqtt.Publisher
	mqtt.ConnectionStatus
	mqtt.SettingsSource
}

func openMQTT(cfg *config.Config, logger zerolog.Logger) (mqttLink, error) {
	if !cfg.MQTT.Enabled {
		logger.Info().Msg("mqtt disabled")
		return mqtt.NewFakePublisher(), nil
	}
	return mqtt.NewRealPublisher(mqtt.Options{
		Broker:      cfg.MQTT.Broker,
		TopicPrefix: cfg.MQTT.TopicPrefix,
		BufferSize:  cfg.MQTT.BufferSize,
	}, logger)
}

func mqttBroker(cfg *config.Config) string {
	if !cfg.MQTT.Enabled {
		return ""
	}
	return cfg.MQTT.Broker
}

func startDiscovery(cfg *config.Config, logger zerolog.Logger) *discovery.Advertiser {
	port, err := discovery.PortFromAddr(cfg.HTTP.Addr)
	if err != nil {
		logger.Warn().Err(err).Str("addr", cfg.HTTP.Addr).Msg("cannot advertise http address")
		return nil
	}
	adv := discovery.New(discovery.Config{
		Instance: cfg.Discovery.Instance,
		Service:  cfg.Discovery.Service,
		Domain:   cfg.Discovery.Domain,
		Port:     port,
		Version:  version,
	}, logger)
	if err := adv.Advertise(context.Background()); err != nil {
		logger.Warn().Err(err).Msg("mdns advertisement failed")
		return nil
	}
	return adv
}

// setupLogger configures the logger based on configuration
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
