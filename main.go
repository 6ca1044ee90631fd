package main

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"

	"github.com/poselink/poselink/cmd"
	"github.com/poselink/poselink/internal/api"
	"github.com/poselink/poselink/internal/bridge"
	"github.com/poselink/poselink/internal/config"
	"github.com/poselink/poselink/internal/events"
	"github.com/poselink/poselink/internal/listener"
	"github.com/poselink/poselink/internal/logging"
	"github.com/poselink/poselink/internal/metrics"
	"github.com/poselink/poselink/internal/natsio"
	"github.com/poselink/poselink/internal/updater"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Server settings
	Port string `help:"API port to listen on" short:"p" default:":8090" toml:"server.port" env:"SERVER_PORT"`

	// Listener settings
	ListenerEndpoint string `help:"UDP endpoint to receive pose datagrams on (unicast or multicast)" default:"0.0.0.0:54321" toml:"listener.endpoint" env:"LISTENER_ENDPOINT"`
	ListenerHeadBone string `help:"Bone to derive head angles from (empty = last bone)" default:"" toml:"listener.head_bone" env:"LISTENER_HEAD_BONE"`

	// NATS settings
	NATSEmbedded bool   `help:"Run an embedded NATS server" default:"true" toml:"nats.embedded" env:"NATS_EMBEDDED"`
	NATSPort     int    `help:"Embedded NATS server port" default:"4222" toml:"nats.port" env:"NATS_PORT"`
	NATSURL      string `help:"External NATS server URL (used when embedded is off)" default:"" toml:"nats.url" env:"NATS_URL"`

	// Auth settings
	AuthUsername string `help:"Basic auth username" default:"" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Update settings
	UpdateRepository string `help:"GitHub repository for self-updates (empty = disabled)" default:"" toml:"update.repository" env:"UPDATE_REPOSITORY"`

	// Logging settings
	LoggingLevel    string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat   string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingListener string `help:"Listener logging level" default:"info" toml:"logging.listener" env:"LOGGING_LISTENER"`
	LoggingBridge   string `help:"Bridge logging level" default:"info" toml:"logging.bridge" env:"LOGGING_BRIDGE"`
	LoggingDecoder  string `help:"Decoder logging level" default:"info" toml:"logging.decoder" env:"LOGGING_DECODER"`
	LoggingAPI      string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
	LoggingNATS     string `help:"NATS logging level" default:"info" toml:"logging.nats" env:"LOGGING_NATS"`
}

// listenerHolder owns the current listener instance. The config watcher can
// replace it at runtime, so all access goes through the holder.
type listenerHolder struct {
	mu       sync.Mutex
	current  *listener.Listener
	endpoint listener.Endpoint
}

func (h *listenerHolder) swap(next *listener.Listener, endpoint listener.Endpoint) *listener.Listener {
	h.mu.Lock()
	defer h.mu.Unlock()
	prev := h.current
	h.current = next
	h.endpoint = endpoint
	return prev
}

func (h *listenerHolder) state() api.ListenerState {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.current == nil {
		return api.ListenerState{Status: listener.StatusStopped.String()}
	}
	return api.ListenerState{
		Status:   h.current.Status().String(),
		Endpoint: h.endpoint.String(),
	}
}

func (h *listenerHolder) close() {
	h.mu.Lock()
	current := h.current
	h.current = nil
	h.mu.Unlock()
	if current != nil {
		current.Close()
	}
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		if loadErr := config.LoadConfig(opts, nil); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		logging.Initialize(logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"listener": opts.LoggingListener,
				"bridge":   opts.LoggingBridge,
				"decoder":  opts.LoggingDecoder,
				"api":      opts.LoggingAPI,
				"nats":     opts.LoggingNATS,
			},
		})

		logger := logging.GetLogger("main")
		startedAt := time.Now()

		// Event bus carries domain events to the SSE endpoints. Log entries
		// ride the same bus.
		eventBus := events.New()
		logging.SetLogCallback(func(entry logging.LogEntry) {
			eventBus.Publish(events.LogEntryEvent{
				Timestamp:  entry.Timestamp.Format(time.RFC3339Nano),
				Level:      entry.Level,
				Module:     entry.Module,
				Message:    entry.Message,
				Attributes: entry.Attributes,
			})
		})

		m := metrics.New()

		// Republish transport: embedded NATS server by default, external
		// server by URL otherwise.
		var natsServer *natsio.Server
		natsURL := opts.NATSURL
		if opts.NATSEmbedded {
			natsServer = natsio.NewServer(natsio.ServerOptions{
				Port:   opts.NATSPort,
				Logger: logging.GetLogger("nats"),
			})
		}

		natsPub := natsio.NewPublisher(natsURL, logging.GetLogger("nats"))

		endpoint, err := listener.ParseEndpoint(opts.ListenerEndpoint)
		if err != nil {
			logger.Error("Invalid listener endpoint", "endpoint", opts.ListenerEndpoint, "error", err)
			os.Exit(1)
		}

		b := bridge.New(bridge.Options{
			Publisher: natsPub,
			Bus:       eventBus,
			Metrics:   m,
			Logger:    logging.GetLogger("bridge"),
			HeadBone:  opts.ListenerHeadBone,
		})

		holder := &listenerHolder{}

		startListener := func(ep listener.Endpoint) {
			l := listener.New(ep, b.Enqueue, logging.GetLogger("listener"))
			if prev := holder.swap(l, ep); prev != nil {
				prev.Close()
			}
			if l.IsValid() {
				m.ListenerUp.Set(1)
			} else {
				m.ListenerUp.Set(0)
				logger.Warn("Listener failed to bind", "endpoint", ep.String())
			}
			eventBus.Publish(events.ListenerStateEvent{
				Status:    l.Status().String(),
				Endpoint:  ep.String(),
				Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			})
		}

		// Self-update service (optional).
		var updateService updater.Service
		if opts.UpdateRepository != "" {
			svc, svcErr := updater.NewService(&updater.Options{Repository: opts.UpdateRepository})
			if svcErr != nil {
				logger.Warn("Failed to create update service", "error", svcErr)
			} else {
				updateService = svc
			}
		}

		server := api.NewServer(&api.Options{
			AuthUsername:      opts.AuthUsername,
			AuthPassword:      opts.AuthPassword,
			Bridge:            b,
			EventBus:          eventBus,
			ListenerState:     holder.state,
			NATSConnected:     natsPub.IsConnected,
			Uptime:            func() string { return time.Since(startedAt).Round(time.Second).String() },
			UpdateService:     updateService,
			PrometheusHandler: m.Handler(),
		})

		// Watch the config file: an endpoint change restarts the listener, a
		// head-bone change retunes the decoder. The watcher delivers reloads
		// serially, so headBone needs no locking.
		headBone := opts.ListenerHeadBone
		watcher := config.NewConfigWatcher(
			opts.Config,
			config.LoadSettings,
			logger,
		)
		watcher.OnReload(func(settings config.Settings) {
			if settings.Listener.HeadBone != headBone {
				headBone = settings.Listener.HeadBone
				logger.Info("Head bone changed", "bone", headBone)
				b.SetHeadBone(headBone)
			}

			ep, parseErr := listener.ParseEndpoint(settings.Listener.Endpoint)
			if parseErr != nil {
				logger.Warn("Ignoring reload with invalid endpoint",
					"endpoint", settings.Listener.Endpoint, "error", parseErr)
				return
			}
			holder.mu.Lock()
			unchanged := holder.current != nil && holder.endpoint.String() == ep.String()
			holder.mu.Unlock()
			if unchanged {
				return
			}
			logger.Info("Listener endpoint changed, restarting listener", "endpoint", ep.String())
			startListener(ep)
		})

		hooks.OnStart(func() {
			if natsServer != nil {
				if startErr := natsServer.Start(); startErr != nil {
					logger.Error("Failed to start embedded NATS server", "error", startErr)
					os.Exit(1)
				}
				natsPub.SetURL(natsServer.ClientURL())
			}
			if connErr := natsPub.Connect(); connErr != nil {
				logger.Warn("NATS unavailable, pushes will fail until it comes back", "error", connErr)
			}

			b.Start()
			startListener(endpoint)

			if watchErr := watcher.Start(); watchErr != nil {
				logger.Warn("Config watcher unavailable", "error", watchErr)
			}

			logger.Info("Starting HTTP server", "port", opts.Port)
			if startErr := server.Start(opts.Port); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
				logger.Error("Failed to start HTTP server", "error", startErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down")
			if stopErr := server.Stop(); stopErr != nil {
				logger.Error("Error stopping HTTP server", "error", stopErr)
			}
			if stopErr := watcher.Stop(); stopErr != nil {
				logger.Warn("Error stopping config watcher", "error", stopErr)
			}

			// Listener first so no more datagrams arrive, then the bridge
			// drains, then the transport closes.
			holder.close()
			m.ListenerUp.Set(0)
			b.Close()
			natsPub.Close()
			if natsServer != nil {
				natsServer.Stop()
			}
		})
	})

	cli.Root().AddCommand(cmd.CreateSendCmd())
	cli.Root().AddCommand(cmd.CreateUpdateCmd())

	cli.Run()
}
