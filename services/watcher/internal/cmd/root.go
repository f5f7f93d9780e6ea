package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/02loveslollipop/marathon-tracker/internal/extract"
	"github.com/02loveslollipop/marathon-tracker/internal/logger"
	"github.com/02loveslollipop/marathon-tracker/internal/tracker"
	"github.com/02loveslollipop/marathon-tracker/services/watcher/internal/config"
	"github.com/02loveslollipop/marathon-tracker/services/watcher/internal/poller"
)

// flagEnv maps each flag to the environment variable that sets it.
var flagEnv = map[string]string{
	"interval":  "WATCH_INTERVAL",
	"heartbeat": "WATCH_HEARTBEAT",
	"once":      "WATCH_ONCE",
	"log-level": "LOG_LEVEL",
}

// NewRootCmd builds the watcher command.
func NewRootCmd() *cobra.Command {
	v := viper.New()
	opts := config.Options{}

	cmd := &cobra.Command{
		Use:   "watcher [bib|name...]",
		Short: "Poll marathon runners and log their progress",
		Long: `Looks every given bib number or runner name up on a fixed interval and
logs each runner whenever they cross a new timing mat.`,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load(".env")
			v.AutomaticEnv()
			return bindFlags(cmd, v)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, v, opts, args)
		},
	}

	cmd.Flags().DurationVar(&opts.Interval, "interval", config.DefaultInterval,
		"Polling interval for every runner")
	cmd.Flags().DurationVar(&opts.Heartbeat, "heartbeat", config.DefaultHeartbeat,
		"Report unchanged runners at most this often (0 disables)")
	cmd.Flags().BoolVar(&opts.Once, "once", false,
		"Look every runner up once and exit; fails if every lookup fails")
	cmd.Flags().StringVar(&opts.LogLevel, "log-level", "",
		"Log level (debug, info, warn, error)")

	return cmd
}

// Execute runs the watcher and exits non-zero on failure.
func Execute(cmd *cobra.Command) {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, v *viper.Viper, opts config.Options, queries []string) error {
	cfg, err := config.Load(v, opts)
	if err != nil {
		return err
	}

	log := logger.Init(cfg.LogLevel, cfg.LogFormat, cfg.IsDevelopment())
	logger.WithService(log, "watcher").WithFields(map[string]interface{}{
		"queries":  len(queries),
		"interval": cfg.Interval.String(),
		"once":     cfg.Once,
	}).Info("Starting watcher")

	course, err := cfg.Course()
	if err != nil {
		return err
	}

	source := extract.NewSource(cfg.SourceConfig(), log)
	tr := tracker.New(course, source, log)
	p := poller.New(tr, queries, cfg.Interval, cfg.Heartbeat, log)

	if cfg.Once {
		return p.RunOnce(cmd.Context())
	}
	return p.Run(cmd.Context())
}

// bindFlags applies the environment value of every flag the user did not
// set explicitly.
func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		env, ok := flagEnv[f.Name]
		if !ok || bindErr != nil {
			return
		}
		if err := v.BindEnv(f.Name, env); err != nil {
			bindErr = fmt.Errorf("bind %s: %w", env, err)
			return
		}
		if !f.Changed && v.IsSet(f.Name) {
			val := v.Get(f.Name)
			if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", val)); err != nil {
				bindErr = fmt.Errorf("invalid %s: %w", env, err)
			}
		}
	})
	return bindErr
}
