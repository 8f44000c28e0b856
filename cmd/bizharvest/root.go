package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/a3tai/bizharvest/internal/analysis"
	"github.com/a3tai/bizharvest/internal/config"
	"github.com/a3tai/bizharvest/internal/fetch"
	"github.com/a3tai/bizharvest/internal/harvest"
	"github.com/a3tai/bizharvest/internal/heuristics"
	"github.com/a3tai/bizharvest/internal/links"
	"github.com/a3tai/bizharvest/internal/mcp"
	"github.com/a3tai/bizharvest/internal/pdf"
	"github.com/a3tai/bizharvest/internal/report"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bizharvest",
		Short: "Harvest Albanian business registry extracts linked from PDF documents",
		Long: `bizharvest finds the links inside a PDF, downloads the documents behind them
and extracts business details from QKB registry extracts it recognises.

Configuration is read from flags, BIZHARVEST_* environment variables and
config.yaml in $XDG_CONFIG_HOME/bizharvest or the working directory.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	config.DefineFlags(cmd.PersistentFlags())

	cmd.AddCommand(newLinksCmd())
	cmd.AddCommand(newAnalyzeCmd())
	cmd.AddCommand(newHarvestCmd())
	cmd.AddCommand(newClassifyCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// app holds the components shared by the commands
type app struct {
	cfg       *config.Config
	logger    *log.Logger
	service   *pdf.Service
	validator *pdf.Validator
	harvester *harvest.Harvester
}

func newApp(cmd *cobra.Command, mode string) (*app, error) {
	cfg, err := config.Load(viper.New(), cmd.Flags(), mode)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if version != "dev" {
		cfg.Version = version
	}

	logger := setupLogging(cfg)
	if cfg.IsDebug() {
		log.Printf("Starting with configuration: %s", cfg.String())
	}

	factory, err := cfg.LibraryFactory()
	if err != nil {
		return nil, err
	}
	service, err := pdf.NewService(cfg.MaxFileSize, cfg.DocumentDirectory, factory, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF service: %w", err)
	}
	if err := service.ValidateConfiguration(); err != nil {
		return nil, err
	}

	fetcher := fetch.New(fetch.Options{
		Timeout:        cfg.FetchTimeout,
		MaxBodySize:    cfg.MaxFileSize,
		RateLimit:      cfg.RateLimit,
		TrustedDomains: cfg.TrustedDomains,
		Logger:         logger,
	})
	harvester := harvest.New(fetcher, service.Extractor(), harvest.Options{
		Workers: cfg.Workers,
		MaxURLs: cfg.MaxURLs,
		Strict:  cfg.StrictMode,
		Logger:  logger,
	})

	return &app{
		cfg:       cfg,
		logger:    logger,
		service:   service,
		validator: pdf.NewValidator(cfg.MaxFileSize),
		harvester: harvester,
	}, nil
}

func (a *app) write(cmd *cobra.Command, v any) error {
	w, err := report.NewWriter(a.cfg.OutputFormat, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	return w.Write(v)
}

// signalContext is cancelled on SIGINT, SIGTERM or SIGHUP
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
}

func newLinksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "links <file.pdf>",
		Short: "List the links and email addresses found in a PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, config.ModeCLI)
			if err != nil {
				return err
			}
			data, err := a.validator.ReadFile(args[0])
			if err != nil {
				return err
			}
			return a.write(cmd, links.NewExtractor(a.logger).ExtractAll(data))
		},
	}
}

func newAnalyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <file.pdf|url>",
		Short: "Extract and analyze the text of a local PDF or a downloaded document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, config.ModeCLI)
			if err != nil {
				return err
			}

			target := args[0]
			if links.IsValidURL(target) {
				ctx, cancel := signalContext(cmd.Context())
				defer cancel()
				outcome := a.harvester.Process(ctx, target)
				if outcome.Analysis == nil {
					return fmt.Errorf("%s: %s: %s", target, outcome.Status, outcome.Reason)
				}
				return a.write(cmd, outcome.Analysis)
			}

			data, err := a.validator.ReadFile(target)
			if err != nil {
				return err
			}
			result, err := a.service.Extractor().Extract(data)
			if err != nil {
				return err
			}
			return a.write(cmd, analysis.Analyze(result))
		},
	}
}

func newHarvestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "harvest [file.pdf]",
		Short: "Download the documents linked from a PDF and collect business records",
		Long: `Harvest extracts every link of the given PDF, downloads the linked documents
and reports the business registry extracts among them. With --url the listed
URLs are harvested directly instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			urls, err := cmd.Flags().GetStringSlice("url")
			if err != nil {
				return err
			}
			if len(args) == 0 && len(urls) == 0 {
				return fmt.Errorf("a PDF file or at least one --url is required")
			}

			a, err := newApp(cmd, config.ModeCLI)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			if len(args) == 0 {
				return a.write(cmd, a.harvester.Harvest(ctx, urls))
			}
			data, err := a.validator.ReadFile(args[0])
			if err != nil {
				return err
			}
			return a.write(cmd, a.harvester.HarvestPDF(ctx, data))
		},
	}
	cmd.Flags().StringSlice("url", nil, "URL to harvest directly (repeatable)")
	return cmd
}

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <url>...",
		Short: "Show whether URLs look like PDF documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, config.ModeCLI)
			if err != nil {
				return err
			}
			for _, u := range args {
				if err := a.write(cmd, heuristics.Classify(u)); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the tools over the Model Context Protocol on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, config.ModeStdio)
			if err != nil {
				return err
			}

			server, err := mcp.NewServer(a.cfg, a.service, a.harvester)
			if err != nil {
				return fmt.Errorf("failed to create MCP server: %w", err)
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()
			return server.Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			printVersion(cmd.OutOrStdout())
		},
	}
}
