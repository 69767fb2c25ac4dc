package main

import (
	"context"
	"os"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/sweeney/drive-timer/internal/gpio"
	"github.com/sweeney/drive-timer/internal/input"
	"github.com/sweeney/drive-timer/internal/logic"
	"github.com/sweeney/drive-timer/internal/metrics"
	"github.com/sweeney/drive-timer/internal/mqtt"
	"github.com/sweeney/drive-timer/internal/persist"
	"github.com/sweeney/drive-timer/internal/settings"
	"github.com/sweeney/drive-timer/internal/status"
)

const shutdownTimeout = 5 * time.Second

// firedScheduler is the half of scheduler.Loop the run loop drains.
type firedScheduler interface {
	Fired() <-chan logic.Handle
	Run(h logic.Handle) bool
}

type watchdog interface {
	Watchdog() error
}

// loopInputs are the channels runLoop multiplexes. A nil channel disables
// that input.
type loopInputs struct {
	sig        <-chan os.Signal
	poll       <-chan time.Time
	heartbeat  <-chan time.Time
	checkpoint <-chan time.Time
	watchdog   <-chan time.Time
}

// daemon owns the engine and every collaborator the run loop touches. All
// fields are used from the run-loop goroutine only.
type daemon struct {
	logger     zerolog.Logger
	engine     *logic.Engine
	detector   *input.Detector
	reader     gpio.ButtonReader
	buzzer     logic.Alerter
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	settings   <-chan mqtt.SettingMessage
	tracker    *status.Tracker
	metrics    *metrics.Metrics
	persister  *persist.Persister
	sched      firedScheduler
	notifier   watchdog
	now        func() time.Time

	// readErrors counts consecutive GPIO read failures so that a stuck line
	// logs once instead of every poll.
	readErrors int
}

// runLoop multiplexes every input onto the engine until a signal arrives.
func (d *daemon) runLoop(in loopInputs) error {
	d.sync()

	var fired <-chan logic.Handle
	if d.sched != nil {
		fired = d.sched.Fired()
	}

	for {
		select {
		case s := <-in.sig:
			d.shutdown(signalName(s))
			return nil

		case <-in.poll:
			d.poll()

		case h := <-fired:
			d.sched.Run(h)

		case msg := <-d.settings:
			d.applySetting(msg)

		case <-in.heartbeat:
			d.heartbeat()

		case <-in.checkpoint:
			d.save()

		case <-in.watchdog:
			if d.notifier != nil {
				if err := d.notifier.Watchdog(); err != nil {
					d.logger.Warn().Err(err).Msg("watchdog notify failed")
				}
			}
		}
		d.sync()
	}
}

func (d *daemon) poll() {
	b, err := d.reader.Read()
	if err != nil {
		if d.readErrors == 0 {
			d.logger.Warn().Err(err).Msg("gpio read error")
		}
		d.readErrors++
		return
	}
	if d.readErrors > 0 {
		d.logger.Info().Int("failed_reads", d.readErrors).Msg("gpio read recovered")
		d.readErrors = 0
	}

	for _, a := range d.detector.Process(b, d.now()) {
		d.logger.Debug().Str("action", string(a)).Msg("button")
		switch a {
		case input.ActionToggleDrive:
			d.engine.ToggleDrive()
		case input.ActionToggleRest:
			d.engine.ToggleRest()
		case input.ActionResetArmed:
			d.logger.Info().Msg("reset armed, press again to confirm")
			if d.buzzer != nil {
				d.buzzer.Pulse()
			}
		case input.ActionReset:
			d.engine.Reset()
		}
	}
}

func (d *daemon) applySetting(msg mqtt.SettingMessage) {
	s, ok := settings.Parse(msg.Key, msg.Value)
	if !ok {
		d.logger.Warn().Str("key", msg.Key).Str("value", msg.Value).Msg("ignoring setting")
		return
	}
	d.engine.ApplySetting(s)
}

// sync drains engine events to every sink and refreshes the status views.
func (d *daemon) sync() {
	events := d.engine.Events()
	for _, e := range events {
		d.logger.Info().
			Str("event", string(e.Type)).
			Str("timer", string(e.Timer)).
			Int("drive", e.Drive).
			Int("rest", e.Rest).
			Int("remaining", e.Remaining).
			Msg("event")
		if d.publisher != nil {
			if err := d.publisher.Publish(e); err != nil {
				d.logger.Warn().Err(err).Str("event", string(e.Type)).Msg("publish error")
			}
		}
	}

	view := d.engine.View()
	connected := d.mqttStatus != nil && d.mqttStatus.IsConnected()
	now := d.now()

	if d.metrics != nil {
		d.metrics.Observe(events)
		d.metrics.SetView(view)
		d.metrics.SetMQTTConnected(connected)
	}
	if d.tracker != nil {
		d.tracker.CountEvents(events)
		d.tracker.Update(view, d.detector.IsBaselined(), d.detector.Armed(now))
		d.tracker.SetMQTTConnected(connected)
	}
}

func (d *daemon) save() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := d.persister.Save(ctx, d.engine.Snapshot())
	if d.metrics != nil {
		d.metrics.PersistResult(err)
	}
}

func (d *daemon) heartbeat() {
	if d.tracker != nil {
		if net := readNetworkInfo(); net != nil {
			d.tracker.SetNetwork(net)
		}
	}
	d.publishSystem("HEARTBEAT", "", false)
}

func (d *daemon) shutdown(reason string) {
	d.logger.Info().Str("signal", reason).Msg("shutting down")
	d.save()
	d.sync()
	d.publishSystem("SHUTDOWN", reason, true)
}

// publishSystem sends a lifecycle event carrying a full status snapshot.
func (d *daemon) publishSystem(event, reason string, retained bool) {
	if d.publisher == nil {
		return
	}
	e := mqtt.SystemEvent{
		Timestamp: d.now(),
		Event:     event,
		Reason:    reason,
		Retained:  retained,
	}
	if d.tracker != nil {
		e.RawPayload = status.FormatStatusEvent(d.tracker.Snapshot(), event, reason)
	}
	if err := d.publisher.PublishSystem(e); err != nil {
		d.logger.Warn().Err(err).Str("event", event).Msg("system publish error")
		return
	}
	d.logger.Debug().Str("event", event).Msg("published system event")
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}
