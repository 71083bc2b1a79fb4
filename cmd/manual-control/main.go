// Command manual-control arbitrates between manual input sources and
// publishes the authoritative control setpoint to MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/manual-control/internal/config"
	"github.com/sweeney/manual-control/internal/gpio"
	"github.com/sweeney/manual-control/internal/logic"
	"github.com/sweeney/manual-control/internal/mqtt"
	"github.com/sweeney/manual-control/internal/status"
	"github.com/sweeney/manual-control/internal/web"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (optional; defaults apply without one)")
	broker := flag.String("broker", "", "MQTT broker address (overrides config)")
	httpAddr := flag.String("http", "", "HTTP status address (overrides config)")
	check := flag.Bool("check", false, "Validate the configuration and exit")

	flag.Parse()

	cfg, err := loadConfig(*configPath, *broker, *httpAddr)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}

	if *check {
		fmt.Println("config ok")
		return
	}

	if err := run(cfg, *configPath); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// loadConfig loads the file (or defaults), applies flag overrides and
// re-validates the result.
func loadConfig(path, broker, httpAddr string) (config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return config.Config{}, err
		}
	}
	if broker != "" {
		cfg.Broker = broker
	}
	if httpAddr != "" {
		cfg.HTTPAddr = httpAddr
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func run(cfg config.Config, configPath string) error {
	eng, err := cfg.Engine()
	if err != nil {
		return err
	}
	arb := logic.NewArbiter(eng)

	// Optional hardware kill switch
	var kill gpio.Reader
	if cfg.GPIO.Enabled {
		reader, err := gpio.NewRealReader(cfg.GPIO.Chip, cfg.GPIO.Pin)
		if err != nil {
			return fmt.Errorf("init gpio: %w", err)
		}
		defer reader.Close()
		kill = reader
		log.Printf("kill switch on %s pin %d", cfg.GPIO.Chip, cfg.GPIO.Pin)
	}

	// Initialize MQTT
	transport, err := mqtt.NewRealTransport(cfg.Broker)
	if err != nil {
		return fmt.Errorf("connect mqtt: %w", err)
	}
	defer transport.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), statusConfig(cfg))
	tracker.SetMQTTConnected(transport.IsConnected())

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := transport.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP status server
	if cfg.HTTPAddr != "" {
		srv := web.New(cfg.HTTPAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTPAddr)
	}

	// Watch the config file for hot reloads
	var cfgCh <-chan config.Config
	if configPath != "" {
		watcher, err := config.NewWatcher(configPath)
		if err != nil {
			return fmt.Errorf("watch config: %w", err)
		}
		defer watcher.Close()
		cfgCh = watcher.Changes()
	}

	log.Printf("started: period=%v timeout=%v mode=%s broker=%s",
		time.Duration(cfg.Period), time.Duration(cfg.SourceTimeout), cfg.InputMode, cfg.Broker)

	ticker := time.NewTicker(time.Duration(cfg.Period))
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(transport, transport, kill, tracker, arb, cfgCh, time.Duration(cfg.Period),
		time.Now, transport.Wake(), ticker.C, sigCh, ticker.Reset)
}

func runLoop(transport mqtt.Transport, mqttStatus mqtt.ConnectionStatus, kill gpio.Reader,
	tracker *status.Tracker, arb *logic.Arbiter, cfgCh <-chan config.Config,
	period time.Duration, now func() time.Time, wake <-chan struct{}, tick <-chan time.Time,
	sig <-chan os.Signal, resetPeriod func(time.Duration)) error {

	prevSelected := arb.Instance()

	cycle := func() {
		start := now()
		inputs, switches := transport.Poll()

		if kill != nil {
			engaged, err := kill.Read()
			if err != nil {
				log.Printf("gpio read error: %v", err)
			} else {
				if switches == nil {
					switches = &logic.SwitchSample{Time: start, Source: logic.SourceRC}
				}
				switches.Kill = switches.Kill || engaged
			}
		}

		res := arb.Cycle(start, inputs, switches)

		for _, cmd := range res.Commands {
			log.Printf("command: arm=%v origin=%s", cmd.Arm, cmd.Origin)
			if err := transport.PublishCommand(cmd); err != nil {
				log.Printf("command publish error: %v", err)
				// Don't crash on publish failure
			}
		}

		if res.Publish {
			if err := transport.PublishSetpoint(res.Setpoint); err != nil {
				log.Printf("setpoint publish error: %v", err)
			}
		}

		if res.SelectionChanged {
			log.Printf("selected manual input changed: %d -> %d", prevSelected, res.Selected)
			prevSelected = res.Selected
			transport.Watch(res.Selected)
		}

		tracker.Update(res.Setpoint, res.Selected, arb.Counts())
		if mqttStatus != nil {
			tracker.SetMQTTConnected(mqttStatus.IsConnected())
		}
		tracker.ObserveCycle(now().Sub(start))

		// A full period should elapse after every run, not just after the
		// ticks, so wake-driven cycles push the next deadline out too.
		if resetPeriod != nil {
			resetPeriod(period)
		}
	}

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			if mqttStatus != nil {
				tracker.SetMQTTConnected(mqttStatus.IsConnected())
			}
			snap := tracker.Snapshot()
			event := mqtt.SystemEvent{
				Timestamp:  now(),
				Event:      "SHUTDOWN",
				Reason:     signalName,
				Retained:   true,
				RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", signalName),
			}
			if err := transport.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case cfg := <-cfgCh:
			eng, err := cfg.Engine()
			if err != nil {
				log.Printf("config reload rejected: %v", err)
				continue
			}
			arb.Apply(eng)
			tracker.SetConfig(statusConfig(cfg))
			period = time.Duration(cfg.Period)
			log.Printf("config reloaded: period=%v timeout=%v mode=%s",
				time.Duration(cfg.Period), time.Duration(cfg.SourceTimeout), cfg.InputMode)
			cycle()

		case <-wake:
			cycle()

		case <-tick:
			cycle()
		}
	}
}

func statusConfig(cfg config.Config) status.Config {
	return status.Config{
		PeriodMs:        time.Duration(cfg.Period).Milliseconds(),
		SourceTimeoutMs: time.Duration(cfg.SourceTimeout).Milliseconds(),
		GestureHoldMs:   time.Duration(cfg.GestureHold).Milliseconds(),
		OverridePercent: cfg.OverridePercent,
		InputMode:       cfg.InputMode,
		Broker:          cfg.Broker,
		HTTPAddr:        cfg.HTTPAddr,
	}
}
