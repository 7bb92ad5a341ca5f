// Command dataconnect serves one of the demo apps: the task manager, the NPI
// application API or the HETS enrollment API.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pawansangari/dataconnect-apps/internal/app/httpapi"
	"github.com/pawansangari/dataconnect-apps/internal/app/runtime"
	"github.com/pawansangari/dataconnect-apps/internal/config"
	"github.com/pawansangari/dataconnect-apps/internal/platform/migrations"
	"github.com/pawansangari/dataconnect-apps/pkg/logger"
)

var appDescriptions = map[string]string{
	httpapi.AppTasks: "Serve the task manager API",
	httpapi.AppNPI:   "Serve the CMS-10114 NPI application API",
	httpapi.AppHETS:  "Serve the HETS EDI enrollment API",
}

type rootFlags struct {
	configPath string
	addr       string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "dataconnect",
		Short:         "Demo apps backed by a credential-refreshing Postgres pool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "YAML file overriding environment settings")
	root.PersistentFlags().StringVar(&flags.addr, "addr", "", "HTTP listen address (overrides HTTP_ADDR)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (overrides LOG_LEVEL)")

	for _, name := range httpapi.Apps {
		name := name
		root.AddCommand(&cobra.Command{
			Use:   name,
			Short: appDescriptions[name],
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return serve(cmd.Context(), name, flags)
			},
		})
	}
	root.AddCommand(newMigrationsCmd(flags))
	return root
}

func loadConfig(flags *rootFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.addr != "" {
		cfg.Server.Addr = flags.addr
	}
	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}
	return cfg, nil
}

func serve(ctx context.Context, name string, flags *rootFlags) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(logger.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		FilePrefix: cfg.Logging.FilePrefix,
	})

	application, err := runtime.NewApplication(ctx, name, cfg, log)
	if err != nil {
		return err
	}
	return application.Run(ctx)
}

// newMigrationsCmd prints the schema statements an app applies at startup,
// for review or for running by hand.
func newMigrationsCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:       "migrations <npi|hets>",
		Short:     "Print the schema statements applied at startup",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{httpapi.AppNPI, httpapi.AppHETS},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return printMigrations(cmd.OutOrStdout(), args[0], cfg.Database)
		},
	}
}

func printMigrations(w io.Writer, name string, db config.DatabaseConfig) error {
	var stmts []string
	switch name {
	case httpapi.AppNPI:
		stmts = migrations.NPI(runtime.SchemaFor(name, db))
	case httpapi.AppHETS:
		stmts = migrations.HETS(runtime.SchemaFor(name, db))
	default:
		return fmt.Errorf("no migrations for %q", name)
	}
	for _, stmt := range stmts {
		if _, err := fmt.Fprintf(w, "%s;\n\n", strings.TrimSpace(stmt)); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
