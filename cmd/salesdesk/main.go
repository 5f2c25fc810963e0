// Command salesdesk is the point-of-sale terminal for the sales backend: log in,
// browse the catalog, look clients up and register sales.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"salesdesk/api"
	"salesdesk/config"
	"salesdesk/session"
)

// app is the state shared by every subcommand once the root pre-run has
// resolved configuration.
type app struct {
	configPath string
	verbose    bool

	out     io.Writer
	cfg     *config.Config
	logger  *zap.Logger
	session *session.Store
	client  *api.Client
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}

	root := &cobra.Command{
		Use:           "salesdesk",
		Short:         "Point-of-sale terminal for the sales backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.SetOut(out)
	root.SetErr(out)

	root.PersistentFlags().StringVar(&a.configPath, "config", config.DefaultPath(), "Path to the config file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		a.loginCmd(),
		a.logoutCmd(),
		a.categoriesCmd(),
		a.catalogCmd(),
		a.clientCmd(),
		a.saleCmd(),
	)
	return root
}

func (a *app) init() error {
	// A missing .env is fine.
	_ = godotenv.Load()

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel())
	if a.verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	a.logger, err = zcfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	a.session, err = session.Open(cfg.Session.Path, session.WithLogger(a.logger))
	if err != nil {
		return err
	}

	a.client, err = api.NewClient(cfg.API.BaseURL,
		api.WithTokenSource(a.session),
		api.WithLogger(a.logger),
	)
	if err != nil {
		return err
	}
	a.logger.Debug("salesdesk ready",
		zap.String("api", a.client.BaseURL()),
		zap.String("session", cfg.Session.Path),
	)
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+userMessage(err)))
		stop()
		os.Exit(1)
	}
}
