package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sghaida/bundlegen/internal/config"
	"github.com/sghaida/bundlegen/internal/host"
	"github.com/sghaida/bundlegen/internal/logging"
	"github.com/sghaida/bundlegen/internal/pipeline"
)

type generateFlags struct {
	config       string
	activator    string
	bundleImport string
	maxRounds    int
	noClean      bool
	logLevel     string
	logFormat    string
}

func generateCmd() *cobra.Command {
	var f generateFlags

	cmd := &cobra.Command{
		Use:   "generate [dir...]",
		Short: "Run the generation rounds over the given package directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, &f, args)
			if err != nil {
				return err
			}
			return runGenerate(cmd, cfg)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.config, "config", config.DefaultFile, "path to the YAML configuration")
	fl.StringVar(&f.activator, "activator", "", "name of the generated activator type (default "+config.DefaultActivator+")")
	fl.StringVar(&f.bundleImport, "bundle-import", "", "import path of the bundle runtime package (inferred when empty)")
	fl.IntVar(&f.maxRounds, "max-rounds", 0, fmt.Sprintf("bound on generation rounds (default %d)", config.DefaultMaxRounds))
	fl.BoolVar(&f.noClean, "no-clean", false, "keep previously generated files")
	fl.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fl.StringVar(&f.logFormat, "log-format", "", "log format: text or json")
	return cmd
}

// resolveConfig loads the configuration file and applies the flags that were
// set explicitly. The default file may be absent; an explicit one may not.
func resolveConfig(cmd *cobra.Command, f *generateFlags, args []string) (*config.Config, error) {
	fl := cmd.Flags()
	cfg, err := config.Load(f.config, !fl.Changed("config"))
	if err != nil {
		return nil, err
	}

	// Packages listed in the file are relative to the file.
	base := filepath.Dir(f.config)
	for i, p := range cfg.Packages {
		if !filepath.IsAbs(p) {
			cfg.Packages[i] = filepath.Join(base, p)
		}
	}
	if len(args) > 0 {
		cfg.Packages = args
	}

	if fl.Changed("activator") {
		cfg.Activator = f.activator
	}
	if fl.Changed("bundle-import") {
		cfg.BundleImport = f.bundleImport
	}
	if fl.Changed("max-rounds") {
		cfg.MaxRounds = f.maxRounds
	}
	if fl.Changed("no-clean") {
		clean := !f.noClean
		cfg.Clean = &clean
	}
	if fl.Changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if fl.Changed("log-format") {
		cfg.Log.Format = f.logFormat
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func runGenerate(cmd *cobra.Command, cfg *config.Config) error {
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	d, err := host.NewDriver(host.Options{
		Dirs:      cfg.Packages,
		MaxRounds: cfg.MaxRounds,
		Clean:     cfg.CleanEnabled(),
		Pipeline: pipeline.Options{
			ActivatorName: cfg.Activator,
			BundleImport:  cfg.BundleImport,
		},
	}, log)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	res, err := d.Run(ctx)
	if res != nil {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "generated %d file(s) in %d round(s)\n", len(res.Files), res.Rounds)
		for _, f := range res.Files {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), f)
		}
	}
	return err
}
