package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/telephonyd/callnotifier/internal/callerinfo"
	"github.com/telephonyd/callnotifier/internal/calllog"
	"github.com/telephonyd/callnotifier/internal/config"
	"github.com/telephonyd/callnotifier/internal/notification"
	"github.com/telephonyd/callnotifier/internal/notifier"
	"github.com/telephonyd/callnotifier/internal/ril"
	"github.com/telephonyd/callnotifier/internal/ringer"
	"github.com/telephonyd/callnotifier/internal/telephony"
	"github.com/telephonyd/callnotifier/internal/tone"
)

func main() {
	configPath := flag.String("config", "/etc/callnotifier/callnotifier.yaml", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("loading config: %v", err)
	}

	log := newLogger(cfg.Log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Infof("received signal %v, shutting down", sig)
		cancel()
	}()

	pub, err := notification.NewMQTTPublisher(notification.MQTTOptions{
		Broker:   cfg.MQTT.Broker,
		ClientID: cfg.MQTT.ClientID,
		QoS:      1,
	})
	if err != nil {
		log.Fatalf("connecting to MQTT: %v", err)
	}
	defer pub.Close()
	log.Infof("connected to MQTT broker %s", cfg.MQTT.Broker)

	notify := notification.NewMQTTManager(pub, cfg.MQTT.TopicPrefix, log.WithField("component", "notification"))

	var (
		store    calllog.Store
		contacts *callerinfo.MySQLSource
	)
	if cfg.Database.DSN != "" {
		store, err = calllog.OpenMySQL(cfg.Database.DSN, log.WithField("component", "calllog"))
		if err != nil {
			log.Fatalf("opening call log: %v", err)
		}
		defer store.Close()

		contacts, err = callerinfo.OpenMySQL(cfg.Database.DSN)
		if err != nil {
			log.Fatalf("opening contacts: %v", err)
		}
		defer contacts.Close()
	} else {
		log.Warn("no database configured, call log and contacts disabled")
	}

	client := ril.NewClient(cfg.RIL.Addr(), cfg.RIL.Secret, log.WithField("component", "ril"))

	var (
		source callerinfo.Source      = emptySource{}
		photos callerinfo.PhotoLoader = nil
	)
	if contacts != nil {
		source = contacts
		photos = contacts
	}
	info := callerinfo.New(source, photos, log.WithField("component", "callerinfo"))

	ring := ringer.New(client.RingtoneDevice(), client.Vibrator(), client,
		cfg.Call.DefaultRingtoneURI, log.WithField("component", "ringer"))

	player := tone.NewPlayer(client.ToneGeneratorFactory(), client,
		log.WithField("component", "tone"),
		tone.WithCdmaCheck(func() bool {
			return client.Snapshot().Type == telephony.PhoneTypeCDMA
		}))

	n := notifier.New(client, ring, player, info, client, client.Vibrator(), notify, store,
		notifier.Config{
			AutoRetry:            cfg.Call.AutoRetry,
			EmergencyTone:        emergencyToneMode(cfg.Call.EmergencyTone),
			RingtoneQueryTimeout: cfg.Call.RingtoneQueryTimeout,
		}, log.WithField("component", "notifier"))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return n.Run(gctx)
	})
	g.Go(func() error {
		defer cancel()
		return runBridge(gctx, client, n, log)
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		log.Fatalf("error: %v", err)
	}
	player.StopAll()
	ring.Stop()
	log.Info("shutdown complete")
}

// runBridge keeps a bridge session alive, reconnecting with a fixed
// backoff until ctx is cancelled.
func runBridge(ctx context.Context, client *ril.Client, n *notifier.Notifier, log *logrus.Logger) error {
	for {
		err := client.RunSession(ctx, n.Post)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			log.Warnf("bridge session error: %v, reconnecting in 5s", err)
			select {
			case <-time.After(5 * time.Second):
			case <-ctx.Done():
				return nil
			}
		}
	}
}

func newLogger(cfg config.LogConfig) *logrus.Logger {
	log := logrus.New()
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	if cfg.File != "" {
		rotated := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
		}
		log.SetOutput(io.MultiWriter(os.Stderr, rotated))
	}
	return log
}

func emergencyToneMode(s string) notifier.EmergencyToneMode {
	switch s {
	case "alert":
		return notifier.EmergencyToneAlert
	case "vibrate":
		return notifier.EmergencyToneVibrate
	default:
		return notifier.EmergencyToneOff
	}
}

// emptySource is the contacts provider used when no database is
// configured. Every number resolves to no record.
type emptySource struct{}

func (emptySource) Query(ctx context.Context, number string) (*callerinfo.Record, error) {
	return nil, nil
}
