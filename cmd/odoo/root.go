package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/natserract/odoo/pkg/odoo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const Version = "0.3.0"

// app carries the state shared by every subcommand of one invocation.
type app struct {
	v      *viper.Viper
	out    io.Writer
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New(), logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "odoo",
		Short: "Odoo ERP command-line client",
		Long: fmt.Sprintf(`odoo (v%s)

Query and update an Odoo instance over JSON-RPC or XML-RPC, and mirror
products, users and manufacturing orders into PostgreSQL.

Connection settings come from flags, then ODOO_* environment variables,
then a .env file in the working directory.`, Version),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}

	flags := root.PersistentFlags()
	flags.String("url", "", "Odoo base URL, e.g. https://erp.example.com (env ODOO_URL)")
	flags.String("db", "", "database name (env ODOO_DB)")
	flags.String("username", "", "login of the API user (env ODOO_USERNAME)")
	flags.String("api-key", "", "API key of the user (env ODOO_API_KEY)")
	flags.String("protocol", "", "wire encoding: jsonrpc or xmlrpc (env ODOO_PROTOCOL)")
	flags.Duration("timeout", 30*time.Second, "per-request timeout for JSON-RPC calls")
	flags.String("log-level", "warn", "log level: debug, info, warn, error")

	a.v.SetEnvPrefix("odoo")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	root.AddCommand(
		a.versionCmd(),
		a.checkCmd(),
		a.ordersCmd(),
		a.productsCmd(),
		a.usersCmd(),
		a.getCmd(),
		a.mirrorCmd(),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	a.out = cmd.OutOrStdout()

	// load .env before viper reads the environment
	_ = godotenv.Load()

	if err := a.v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	level, err := zapcore.ParseLevel(a.v.GetString("log-level"))
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	logger, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = logger
	return nil
}

// client builds an Odoo client from flags, falling back to the environment.
func (a *app) client() (*odoo.Client, error) {
	cfg, err := odoo.FromEnv(odoo.Config{
		URL:      a.v.GetString("url"),
		Database: a.v.GetString("db"),
		Username: a.v.GetString("username"),
		APIKey:   a.v.GetString("api-key"),
		Protocol: odoo.Protocol(a.v.GetString("protocol")),
	})
	if err != nil {
		return nil, err
	}
	return odoo.NewWithLogger(*cfg, a.logger, odoo.WithTimeout(a.v.GetDuration("timeout")))
}

func (a *app) printJSON(v interface{}) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
