package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ajitpratap0/lazperf/pkg/compression"
	"github.com/ajitpratap0/lazperf/pkg/config"
	"github.com/ajitpratap0/lazperf/pkg/lazperf"
	"github.com/ajitpratap0/lazperf/pkg/logger"
	"github.com/ajitpratap0/lazperf/pkg/observability"
)

var version = "0.1.0"

// app carries state shared by all subcommands.
type app struct {
	v       *viper.Viper
	cfg     *config.Config
	log     *zap.Logger
	noColor bool

	closers []func(context.Context) error
}

func main() {
	a := newApp()
	root := a.rootCommand()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := root.ExecuteContext(ctx)
	stop()
	a.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}

func newApp() *app {
	v := viper.New()
	v.SetEnvPrefix("LAZPERF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &app{v: v}
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "lazperf",
		Short: "lazperf - streaming point cloud compression",
		Long: `lazperf compresses fixed-size LAS point records into a chunked stream
and decodes them back. Settings come from a YAML file (--config), LAZPERF_*
environment variables, and flags, in increasing priority.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "Path to a YAML configuration file")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.String("metrics-addr", "", "Serve Prometheus metrics on this address")
	flags.Bool("trace", false, "Export trace spans to stderr")
	flags.BoolVar(&a.noColor, "no-color", false, "Disable colored output")

	_ = a.v.BindPFlag("config", flags.Lookup("config"))
	_ = a.v.BindPFlag("logging.level", flags.Lookup("log-level"))
	_ = a.v.BindPFlag("observability.metrics_addr", flags.Lookup("metrics-addr"))
	_ = a.v.BindPFlag("observability.enable_tracing", flags.Lookup("trace"))

	root.AddCommand(
		a.compressCommand(),
		a.decompressCommand(),
		a.infoCommand(),
		a.exportCommand(),
		versionCommand(),
	)
	return root
}

// setup loads configuration and starts logging, metrics, and tracing.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	if a.noColor || !isatty.IsTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}

	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	a.cfg = cfg

	if err := logger.Init(cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.log = logger.Get().With(zap.String("component", "lazperf-cli"), zap.String("command", cmd.Name()))
	a.closers = append(a.closers, func(context.Context) error { return logger.Sync() })

	if cfg.Observability.EnableMetrics || a.v.IsSet("observability.metrics_addr") {
		srv, err := observability.StartMetricsServer(cfg.Observability.MetricsAddr, a.log)
		if err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
		a.closers = append(a.closers, srv.Shutdown)
	}

	if cfg.Observability.EnableTracing {
		shutdown, err := observability.InitTracing(observability.TracingConfig{
			ServiceName:    "lazperf",
			ServiceVersion: version,
			SamplingRate:   cfg.Observability.TracingSampleRate,
			Writer:         os.Stderr,
			PrettyPrint:    true,
		})
		if err != nil {
			return err
		}
		a.closers = append(a.closers, shutdown)
	}
	return nil
}

// loadConfig layers defaults, the YAML file, environment, and flags.
func (a *app) loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if path := a.v.GetString("config"); path != "" {
		loaded, err := config.LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	overlayString(a.v, "codec.algorithm", &cfg.Codec.Algorithm)
	overlayString(a.v, "codec.level", &cfg.Codec.Level)
	if a.v.IsSet("codec.chunk_size") {
		cfg.Codec.ChunkSize = a.v.GetUint32("codec.chunk_size")
	}
	overlayString(a.v, "logging.level", &cfg.Logging.Level)
	overlayString(a.v, "logging.encoding", &cfg.Logging.Encoding)
	overlayString(a.v, "observability.metrics_addr", &cfg.Observability.MetricsAddr)
	if a.v.IsSet("observability.enable_metrics") {
		cfg.Observability.EnableMetrics = a.v.GetBool("observability.enable_metrics")
	}
	if a.v.IsSet("observability.enable_tracing") {
		cfg.Observability.EnableTracing = a.v.GetBool("observability.enable_tracing")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func overlayString(v *viper.Viper, key string, dst *string) {
	if v.IsSet(key) && v.GetString(key) != "" {
		*dst = v.GetString(key)
	}
}

// sessionOptions turns the codec configuration into session options.
func (a *app) sessionOptions() ([]lazperf.Option, error) {
	cc, err := a.cfg.Codec.CompressionConfig()
	if err != nil {
		return nil, err
	}
	return []lazperf.Option{
		lazperf.WithAlgorithm(cc.Algorithm),
		lazperf.WithLevel(cc.Level),
		lazperf.WithChunkSize(a.cfg.Codec.ChunkSize),
		lazperf.WithLogger(a.log),
	}, nil
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i](ctx)
	}
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "lazperf v%s\n", version)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
			fmt.Fprintf(out, "Codecs: %s\n", algorithmList())
		},
	}
}

func algorithmList() string {
	names := make([]string, 0, len(compression.Algorithms()))
	for _, alg := range compression.Algorithms() {
		names = append(names, string(alg))
	}
	return strings.Join(names, ", ")
}
