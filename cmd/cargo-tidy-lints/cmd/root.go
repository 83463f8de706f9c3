package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/salchaD-27/cargo-tidy-lints/internal/cargo"
	"github.com/salchaD-27/cargo-tidy-lints/internal/catalog"
	"github.com/salchaD-27/cargo-tidy-lints/internal/config"
	"github.com/salchaD-27/cargo-tidy-lints/internal/lint"
	"github.com/salchaD-27/cargo-tidy-lints/internal/manifest"
	"github.com/salchaD-27/cargo-tidy-lints/internal/report"
	"github.com/salchaD-27/cargo-tidy-lints/internal/tidy"
)

// Version is set at build time.
var Version = "0.1.0"

// subcommandName is the first argument cargo passes when the binary is
// run as `cargo tidy-lints`.
const subcommandName = "tidy-lints"

// deps are the external collaborators swapped out in tests.
type deps struct {
	runner cargo.Runner
	client *http.Client
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(deps{})
}

func newRootCmd(d deps) *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "cargo-tidy-lints",
		Short: "Sort Clippy lints against the lint tables of a Cargo project",
		Long: `cargo-tidy-lints fetches the Clippy lint catalog and compares it with the
[workspace.lints] and [lints] tables of the current Cargo project.

For the workspace and for the current crate it writes four reports to the
target directory:

  *_allow.toml        allow-by-default lints not configured yet
  *_unnecessary.toml  warn/deny lints configured although already enabled
  *_duplicate.toml    lints configured both by name and by group
  *_deprecated.toml   deprecated lints still configured`,
		Example: `  # Run from anywhere inside a Cargo project
  cargo tidy-lints

  # Use the nightly catalog and include lint docs in the reports
  cargo tidy-lints --channel master --docs

  # Only lints added since a toolchain upgrade, summary as JSON
  cargo tidy-lints --since 1.80.0 -f json`,
		Version:       Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}

			log := newLogger(cmd.ErrOrStderr(), cfg.Verbose)
			if cfg.File != "" {
				log.WithField("file", cfg.File).Debug("using config file")
			}
			return run(cmd.Context(), cfg, d, cmd.OutOrStdout(), log)
		},
	}

	rootCmd.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	flags := rootCmd.Flags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./cargo-tidy-lints.yaml)")
	flags.String("channel", catalog.DefaultChannel, "Clippy catalog channel: stable, master or rust-<version>")
	flags.String("catalog-url", "", "Fetch the lint catalog from this URL instead of the channel")
	flags.String("tool", manifest.DefaultTool, "Lint tool table to classify against")
	flags.Bool("docs", false, "Append lint documentation as comments in reports")
	flags.String("since", "", "Only consider lints added in this Clippy version or later")
	flags.String("output-dir", cargo.DefaultOutputDir, "Report directory, relative to each manifest")
	flags.StringP("format", "f", "auto", "Summary format: "+strings.Join(config.Formats, "|"))
	flags.Duration("timeout", catalog.DefaultTimeout, "HTTP timeout for the catalog fetch")
	flags.String("cargo", "", "cargo executable (default: $CARGO or cargo)")
	flags.BoolP("verbose", "v", false, "Verbose logging")

	_ = rootCmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return config.Formats, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func run(ctx context.Context, cfg *config.Config, d deps, stdout io.Writer, log logrus.FieldLogger) error {
	paths, err := cargo.Locate(ctx, cargo.Options{
		Binary:    cfg.Cargo,
		OutputDir: cfg.OutputDir,
		Runner:    d.runner,
		Logger:    log,
	})
	if err != nil {
		return err
	}

	fetcher := catalog.New(catalog.Options{
		URL:     cfg.CatalogURL,
		Channel: cfg.Channel,
		Timeout: cfg.Timeout,
		Client:  d.client,
		Logger:  log,
	})

	var (
		items     []lint.Item
		manifests *manifest.Manifests
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = fetcher.Fetch(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		manifests, err = manifest.Load(paths.WorkspaceManifest, paths.MemberManifest, cfg.Tool)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if cfg.Since != "" {
		items = catalog.FilterSince(items, cfg.Since)
		log.WithField("lints", len(items)).Debugf("kept lints added since %s", cfg.Since)
	}

	findings, err := tidy.Run(ctx, tidy.Options{
		Items:    items,
		Jobs:     tidy.ScopeJobs(paths, manifests),
		WithDocs: cfg.Docs,
		Logger:   log,
	})
	if err != nil {
		return err
	}

	out, err := report.Export(summaryFormat(cfg.Format, stdout), findings)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(stdout, out)
	return err
}

// summaryFormat resolves "auto": a table on a terminal, markdown otherwise.
func summaryFormat(format string, w io.Writer) string {
	if !strings.EqualFold(format, "auto") {
		return format
	}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "text"
	}
	return "markdown"
}

func newLogger(w io.Writer, verbose bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetLevel(logrus.InfoLevel)
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

// Execute runs the root command with the process arguments.
func Execute() error {
	rootCmd := NewRootCmd()
	rootCmd.SetArgs(cargoArgs(os.Args[1:]))
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// cargoArgs drops the subcommand name cargo inserts before our arguments.
func cargoArgs(args []string) []string {
	if len(args) > 0 && args[0] == subcommandName {
		return args[1:]
	}
	return args
}
