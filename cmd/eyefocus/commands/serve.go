package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bryanchriswhite/EyeFocus/internal/api"
	"github.com/bryanchriswhite/EyeFocus/internal/config"
	"github.com/bryanchriswhite/EyeFocus/internal/focus"
	"github.com/bryanchriswhite/EyeFocus/internal/ipc"
	"github.com/bryanchriswhite/EyeFocus/internal/logger"
	"github.com/bryanchriswhite/EyeFocus/internal/registry"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the EyeFocus server",
	Long: `Start the EyeFocus navigator with the configured element backend and
tracker transport.

The server provides a REST API, the tracker WebSocket endpoint (/api/gaze)
and Prometheus metrics. With the page backend, synthetic events are written
to stdout as JSON lines.`,
	Example: `  # Start server on default port (8080)
  eyefocus serve

  # Start server on custom port
  eyefocus serve --port 9090

  # Start with specific config file
  eyefocus serve --config /path/to/config.yaml

  # Start with debug logging
  eyefocus serve --log-level debug --pretty`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// loadConfig loads the config file and applies flag overrides.
func loadConfig() (*config.Manager, error) {
	configMgr, err := config.NewManager(GetConfigFile())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize config manager: %w", err)
	}

	// Override port from flag if provided
	if viper.IsSet("server_port") {
		if port := viper.GetInt("server_port"); port > 0 {
			configMgr.SetPort(port)
		}
	}

	// Override log level from flag if provided
	if viper.IsSet("log_level") {
		if logLevel := viper.GetString("log_level"); logLevel != "" {
			configMgr.SetLogLevel(logLevel)
		}
	}

	return configMgr, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	configMgr, err := loadConfig()
	if err != nil {
		return err
	}
	cfg := configMgr.Get()
	logger.Init(cfg.LogLevel, viper.GetBool("pretty"))
	log := logger.WithComponent("serve")

	log.Info().Str("path", configMgr.GetConfigPath()).Str("log_level", cfg.LogLevel).Msg("Configuration loaded")

	settings, err := cfg.Navigation()
	if err != nil {
		return err
	}

	backend, err := openBackend(cfg, os.Stdout)
	if err != nil {
		return fmt.Errorf("failed to open %s backend: %w", cfg.Backend, err)
	}
	defer backend.close()

	sinks := focus.Sinks{backend.sink}
	if cfg.Transport.DBusSignals {
		dbusSink, err := ipc.NewDBusSink()
		if err != nil {
			log.Warn().Err(err).Msg("D-Bus signals disabled")
		} else {
			defer dbusSink.Close()
			sinks = append(sinks, dbusSink)
		}
	}

	reg := registry.New(backend.source)
	nav := focus.NewNavigator(reg, sinks, settings)

	// Transports attach before the first rebuild so the initial WatchSet
	// reaches them.
	var gaze http.Handler
	var announce func() error
	switch cfg.Transport.Kind {
	case config.TransportNATS:
		conn, err := ipc.ConnectNATS(cfg.Transport.NATSURL, "eyefocus")
		if err != nil {
			return err
		}
		defer conn.Close()

		bridge, err := ipc.NewNATSBridge(conn, cfg.Transport.SubjectPrefix, nav)
		if err != nil {
			return err
		}
		defer bridge.Close()
		reg.AddPublisher(bridge)
		announce = bridge.PublishSettings
	default:
		hub := ipc.NewHub(nav, reg)
		defer hub.Close()
		reg.AddPublisher(hub)
		announce = hub.PublishSettings
		gaze = hub
	}

	if _, err := reg.Rebuild(); err != nil {
		log.Warn().Err(err).Msg("Initial scan failed")
	}

	stopWatch, err := backend.watch(reg.Invalidate)
	if err != nil {
		return fmt.Errorf("failed to watch %s backend: %w", backend.name, err)
	}
	defer stopWatch()

	configMgr.Watch(func(c *config.Config) {
		s, err := c.Navigation()
		if err != nil {
			log.Warn().Err(err).Msg("Keeping previous navigation settings")
			return
		}
		nav.SetSettings(s)
		if err := announce(); err != nil {
			log.Warn().Err(err).Msg("Failed to announce settings")
		}
		zerolog.SetGlobalLevel(logger.ParseLevel(c.LogLevel))
	})

	server := api.NewServer(reg, nav, configMgr, gaze)
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(cfg.ServerPort)
	}()

	log.Info().
		Str("backend", backend.name).
		Str("transport", cfg.Transport.Kind).
		Int("elements", reg.Current().Len()).
		Msgf("EyeFocus is running on http://localhost:%d", cfg.ServerPort)

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
	case err := <-errCh:
		return err
	}

	log.Info().Msg("Shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
