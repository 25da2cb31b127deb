package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/researchaccelerator-hub/page-scraper/config"
	"github.com/researchaccelerator-hub/page-scraper/crawler"
	crawlercommon "github.com/researchaccelerator-hub/page-scraper/crawler/common"
	"github.com/researchaccelerator-hub/page-scraper/server"
	"github.com/researchaccelerator-hub/page-scraper/standalone"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	cfgFile string
	v       = config.NewViper()
)

func main() {
	// A missing .env file is fine; real environment variables still apply
	_ = godotenv.Load()

	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "page-scraper",
		Short:        "Extract posts and comments from social media pages",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("backend", config.BackendBrowser, "scraping backend: browser or apify")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "json", "log format: json or console")
	rootCmd.PersistentFlags().Bool("headless", true, "run the browser without a window")

	for key, name := range map[string]string{
		"backend":          "backend",
		"log.level":        "log-level",
		"log.format":       "log-format",
		"browser.headless": "headless",
	} {
		_ = v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(name))
	}

	rootCmd.AddCommand(newServeCmd(), newScrapeCmd())
	return rootCmd
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the scrape endpoint over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().String("port", "8080", "listen port")
	cmd.Flags().Int64("max-concurrent", 2, "maximum concurrent scrapes")
	_ = v.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	_ = v.BindPFlag("server.max_concurrent", cmd.Flags().Lookup("max-concurrent"))
	return cmd
}

func newScrapeCmd() *cobra.Command {
	opts := standalone.Options{Format: standalone.FormatJSON}

	cmd := &cobra.Command{
		Use:   "scrape --url URL [--url URL ...]",
		Short: "Run one or more scrapes and print the records",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Password = os.Getenv("SCRAPER_PASSWORD")
			if err := opts.Validate(); err != nil {
				return err
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			runner, err := newRunner(cfg)
			if err != nil {
				return err
			}
			defer runner.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return standalone.Run(ctx, runner, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringSliceVar(&opts.URLs, "url", nil, "page or post URL to scrape (repeatable)")
	cmd.Flags().StringVar(&opts.URLFile, "url-file", "", "file with one URL per line")
	cmd.Flags().StringVar(&opts.PostID, "post-id", "", "post id; switches to comments mode")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of records (default from config)")
	cmd.Flags().StringVar(&opts.Format, "format", standalone.FormatJSON, "output format: json or csv")
	cmd.Flags().StringVar(&opts.Output, "output", "", "write to this file instead of stdout")
	cmd.Flags().StringVar(&opts.Email, "email", "", "login email (password from SCRAPER_PASSWORD)")
	return cmd
}

// loadConfig builds the process configuration and configures logging.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return config.Config{}, err
	}
	if err := setupLogging(cfg.Log, os.Stderr); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// setupLogging configures the global zerolog logger.
func setupLogging(cfg config.LogConfig, w io.Writer) error {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		return fmt.Errorf("invalid log level '%s'", cfg.Level)
	}
	zerolog.SetGlobalLevel(level)

	switch cfg.Format {
	case "console":
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: w})
	case "json", "":
		log.Logger = zerolog.New(w).With().Timestamp().Logger()
	default:
		return fmt.Errorf("invalid log format '%s', must be json or console", cfg.Format)
	}
	return nil
}

func newRunner(cfg config.Config) (*crawlercommon.ScrapeRunner, error) {
	factory := crawler.NewScraperFactory()
	if err := crawlercommon.RegisterAllScrapers(factory); err != nil {
		return nil, fmt.Errorf("failed to register scrapers: %w", err)
	}
	return crawlercommon.NewScrapeRunner(factory, cfg), nil
}

func serve(ctx context.Context, cfg config.Config) error {
	gin.SetMode(gin.ReleaseMode)

	runner, err := newRunner(cfg)
	if err != nil {
		return err
	}
	defer runner.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, runner)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	log.Info().Str("backend", cfg.Backend).Str("addr", cfg.Server.Addr()).Msg("Scraper service started")
	err = g.Wait()
	log.Info().Interface("stats", runner.Stats()).Msg("Scraper service stopped")
	return err
}
