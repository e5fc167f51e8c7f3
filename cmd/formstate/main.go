// Command formstate validates, edits and serves form schemas.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/goliatone/go-formstate/internal/config"
	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/schema"
	"github.com/goliatone/go-formstate/pkg/validation"
)

// app carries state shared by every subcommand once the root command ran.
type app struct {
	configPath string
	logLevel   string
	formDirs   []string

	cfg     *config.Config
	logger  *zap.Logger
	labeler model.Labeler
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	a := &app{labeler: model.DefaultLabeler}
	root := &cobra.Command{
		Use:           "formstate",
		Short:         "Validate and edit form models",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.init()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "path to a YAML config file")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringSliceVar(&a.formDirs, "forms", nil, "extra directories with form schemas")

	root.AddCommand(
		newFormsCommand(a),
		newValidateCommand(a),
		newEditCommand(a),
		newServeCommand(a),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if len(a.formDirs) > 0 {
		cfg.Catalog.Dirs = append(cfg.Catalog.Dirs, a.formDirs...)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := buildLogger(cfg)
	if err != nil {
		return err
	}
	a.logger = logger
	return nil
}

func buildLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := cfg.LogLevel()
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.Encoding = cfg.Log.Encoding
	if cfg.Log.Encoding == "console" {
		zcfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// catalog loads the embedded forms (unless disabled) plus every configured
// directory. Later sources must not redefine a form id.
func (a *app) catalog(ctx context.Context) (*schema.Catalog, error) {
	catalog, err := schema.NewCatalog()
	if err != nil {
		return nil, err
	}
	opts := []schema.Option{
		schema.WithLogger(a.logger),
		schema.WithDecorators(model.LabelDecorator(a.labeler)),
	}
	var sources []*schema.Catalog
	if a.cfg.Catalog.Embedded {
		embedded, err := schema.LoadFS(ctx, schema.EmbeddedFS(), opts...)
		if err != nil {
			return nil, fmt.Errorf("load embedded forms: %w", err)
		}
		sources = append(sources, embedded)
	}
	for _, dir := range a.cfg.Catalog.Dirs {
		loaded, err := schema.LoadFS(ctx, os.DirFS(dir), opts...)
		if err != nil {
			return nil, fmt.Errorf("load forms from %s: %w", dir, err)
		}
		sources = append(sources, loaded)
	}
	for _, src := range sources {
		for _, form := range src.Forms() {
			if err := catalog.Add(form, src.Source(form.ID)); err != nil {
				return nil, err
			}
		}
	}
	if catalog.Len() == 0 {
		return nil, fmt.Errorf("no forms available: enable catalog.embedded or pass --forms")
	}
	return catalog, nil
}

// ruleOptions labels undeclared fields with the same labeler the catalog
// decorates forms with, so messages and prompts agree.
func (a *app) ruleOptions() []validation.Option {
	opts := []validation.Option{validation.WithLabeler(a.labeler)}
	if a.cfg.Validation.NestedAll {
		opts = append(opts, validation.WithNestedAll())
	}
	return opts
}
