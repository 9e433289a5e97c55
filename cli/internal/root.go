package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/devilmonastery/clubhouse/internal/api"
	"github.com/devilmonastery/clubhouse/internal/auth"
	"github.com/devilmonastery/clubhouse/internal/client"
	"github.com/devilmonastery/clubhouse/internal/dashboard"
	"github.com/devilmonastery/clubhouse/internal/pkg/logger"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const cliContextKey contextKey = "cliContext"

// CliContext holds shared CLI context
type CliContext struct {
	Config      *Config
	ContextName string
	Context     *Context
	Credentials *Credentials
	Client      *client.Client
	API         *api.API
	Auth        *auth.Service
	Dashboard   *dashboard.Loader
	Logger      *slog.Logger
}

// Global flags
var (
	logLevel      string
	logFile       string
	logToStderr   bool
	alsoLogStderr bool
	logFormat     string
	contextFlag   string
	outputFormat  string
)

// Execute runs the CLI and persists session cookies whatever the outcome.
func Execute() error {
	var cc CliContext
	return execute(newRootCommand(&cc), &cc)
}

func execute(rootCmd *cobra.Command, cc *CliContext) error {
	err := rootCmd.Execute()
	if cc.Credentials != nil && cc.Client != nil {
		if saveErr := cc.Credentials.SaveCookies(cc.Client); saveErr != nil && cc.Logger != nil {
			cc.Logger.Warn("failed to save session cookies", slog.String("error", saveErr.Error()))
		}
	}
	return err
}

// NewRootCommand creates the root cobra command
func NewRootCommand() *cobra.Command {
	return newRootCommand(&CliContext{})
}

func newRootCommand(cc *CliContext) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "clubhouse",
		Short:         "CLI for clubs and activities",
		Long:          `A command line interface for browsing clubs, joining activities and administering your clubs.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := setupLogging(cmd.ErrOrStderr()); err != nil {
				return fmt.Errorf("failed to setup logging: %w", err)
			}
			cc.Logger = logger.WithCommand(logger.WithComponent(slog.Default(), "cli"), cmd.CommandPath())
			cc.Logger.Debug("CLI started")

			if inGroup(cmd, "config") {
				return nil
			}
			if err := connect(cmd, cc); err != nil {
				return err
			}

			if !inGroup(cmd, "auth") && !cc.Auth.IsAuthenticated() {
				return fmt.Errorf("not logged in\nPlease run 'clubhouse auth login' first")
			}

			cmd.SetContext(context.WithValue(cmd.Context(), cliContextKey, cc))
			return nil
		},
	}

	rootCmd.AddCommand(newAuthCommand())
	rootCmd.AddCommand(newConfigCommand())
	rootCmd.AddCommand(newClubsCommand())
	rootCmd.AddCommand(newActivitiesCommand())
	rootCmd.AddCommand(newMeCommand())
	rootCmd.AddCommand(newAdminCommand())

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn",
		"Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "",
		"Log file path (if specified, logs to file instead of stderr)")
	rootCmd.PersistentFlags().BoolVar(&logToStderr, "logtostderr", false,
		"Log to stderr (default behavior unless --log-file specified)")
	rootCmd.PersistentFlags().BoolVar(&alsoLogStderr, "alsologtostderr", false,
		"Log to both file and stderr")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text",
		"Log format (text, json)")
	rootCmd.PersistentFlags().StringVar(&contextFlag, "context", "",
		"Config context to use instead of the current one")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table",
		"Output format (table, json)")

	return rootCmd
}

// connect builds the backend client and auth service for the selected context.
func connect(cmd *cobra.Command, cc *CliContext) error {
	config, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	name := config.CurrentContext
	if contextFlag != "" {
		name = contextFlag
	}
	ctx, ok := config.Contexts[name]
	if !ok {
		return fmt.Errorf("context %q not found", name)
	}

	clientCfg, err := ctx.ClientConfig()
	if err != nil {
		return fmt.Errorf("invalid context %q: %w", name, err)
	}
	clientCfg.Logger = cc.Logger
	errOut := cmd.ErrOrStderr()
	clientCfg.OnSessionExpired = func() {
		fmt.Fprintln(errOut, "Your session has expired. Please run 'clubhouse auth login' again.")
	}

	creds, err := OpenCredentials(ctx, name, cc.Logger)
	if err != nil {
		return fmt.Errorf("failed to open credentials: %w", err)
	}
	svc, a, c, err := auth.Connect(clientCfg, creds.Session)
	if err != nil {
		return err
	}
	creds.RestoreCookies(c)

	cc.Config = config
	cc.ContextName = name
	cc.Context = ctx
	cc.Credentials = creds
	cc.Client = c
	cc.API = a
	cc.Auth = svc
	cc.Dashboard = dashboard.NewLoader(a, svc.CurrentUser, cc.Logger)
	return nil
}

// inGroup reports whether cmd is name or one of its subcommands.
func inGroup(cmd *cobra.Command, name string) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Name() == name && c.HasParent() && !c.Parent().HasParent() {
			return true
		}
	}
	return false
}

// setupLogging configures the global logger based on CLI flags
func setupLogging(stderr io.Writer) error {
	if logFile == "" {
		logToStderr = true
	}

	cfg := logger.Config{
		Level:         logger.ParseLevel(logLevel),
		LogFile:       logFile,
		LogToStderr:   logToStderr,
		AlsoLogStderr: alsoLogStderr,
		Format:        logFormat,
	}
	if stderr != os.Stderr {
		cfg.Stderr = stderr
	}

	globalLogger, err := logger.SetupLogger(cfg)
	if err != nil {
		return err
	}

	slog.SetDefault(globalLogger)
	return nil
}

// getCliContext extracts the CLI context from the command context
func getCliContext(cmd *cobra.Command) *CliContext {
	return cmd.Context().Value(cliContextKey).(*CliContext)
}
