package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/zzl/go-mdparam/config"
)

type rootOptions struct {
	configFile string
	verbose    bool

	v *viper.Viper
}

func NewRootCommand() *cobra.Command {
	opts := &rootOptions{v: config.New()}

	cmd := &cobra.Command{
		Use:          "mdparam",
		Short:        "Inspect method parameters of metadata modules",
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "config file (default ./mdparam.yaml)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")
	flags.String("source", "", "source path (.winmd, .yaml fixture or sqlite database)")
	flags.String("kind", "", "source kind: winmd, fixture or sqlite (default from extension)")
	flags.String("module", "", "module name inside a sqlite source")
	flags.StringSlice("namespace", nil, "namespace glob to include, !glob to exclude (winmd)")
	flags.StringSlice("dll", nil, "dll to include (winmd)")
	bind(opts.v, flags.Lookup("source"), "source.path")
	bind(opts.v, flags.Lookup("kind"), "source.kind")
	bind(opts.v, flags.Lookup("module"), "source.module")
	bind(opts.v, flags.Lookup("namespace"), "filter.namespaces")
	bind(opts.v, flags.Lookup("dll"), "filter.dlls")

	cmd.AddCommand(newDumpCommand(opts))
	cmd.AddCommand(newExportCommand(opts))
	return cmd
}

func (this *rootOptions) load() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(this.v, this.configFile)
	if err != nil {
		return nil, nil, err
	}
	logger, err := newLogger(cfg.Log.Level, this.verbose)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func newLogger(levelName string, verbose bool) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(levelName)); err != nil {
		return nil, err
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Encoding = "console"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}
