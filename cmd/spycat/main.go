package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"spycat/internal/app"
	"spycat/internal/config"
	"spycat/internal/engine"
)

var rootCmd = &cobra.Command{
	Use:   "spycat",
	Short: "Spy Cat Agency CLI",
	Long: `spycat manages the agency's cats, their missions and the targets on each mission.
Core concepts:
- Cat: an agent with a breed from the allowed breed list and a salary.
- Mission: one to three targets, optionally assigned to a single cat.
- Target: a person to watch; notes are frozen once the target is completed.
- Completion: a mission completes when its last target does, which frees the cat.
Commands run against the configured store directly; 'spycat serve' exposes the same operations over HTTP.`,
	SilenceUsage: true,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()
	viper.SetEnvPrefix("SPYCAT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().String("config", "", "config file (default <workspace>/spycat.yml)")
	rootCmd.PersistentFlags().String("db-driver", "", "database driver: sqlite or postgres")
	rootCmd.PersistentFlags().String("dsn", "", "database DSN")
	rootCmd.PersistentFlags().String("breeds", "", "breed source: file path or s3://bucket/key")
	rootCmd.PersistentFlags().String("addr", "", "HTTP listen address")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	for _, name := range []string{"workspace", "config", "db-driver", "dsn", "breeds", "addr", "log-level", "json"} {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
}

func registerCommands() {
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(breedsCmd())
	rootCmd.AddCommand(catCmd())
	rootCmd.AddCommand(missionCmd())
	rootCmd.AddCommand(targetCmd())
}

// --- helpers ---

// loadConfig reads the config file (or defaults) and applies flag and
// environment overrides on top.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path := viper.GetString("config"); path != "" {
		cfg, err = config.FromFile(path)
	} else {
		cfg, err = config.LoadOptional(viper.GetString("workspace"))
	}
	if err != nil {
		return nil, err
	}
	applyOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyOverrides(cfg *config.Config) {
	if viper.IsSet("workspace") {
		cfg.Database.Workspace = viper.GetString("workspace")
	}
	if viper.IsSet("db-driver") {
		cfg.Database.Driver = viper.GetString("db-driver")
	}
	if viper.IsSet("dsn") {
		cfg.Database.DSN = viper.GetString("dsn")
	}
	if viper.IsSet("breeds") {
		cfg.Breeds.Source = viper.GetString("breeds")
	}
	if viper.IsSet("addr") {
		cfg.Server.Addr = viper.GetString("addr")
	}
	if viper.IsSet("log-level") {
		cfg.Log.Level = viper.GetString("log-level")
	}
}

func withApp(ctx context.Context, fn func(context.Context, *app.App) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := app.Bootstrap(ctx, cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	return withApp(ctx, func(ctx context.Context, a *app.App) error {
		return fn(ctx, a.Engine)
	})
}

// printJSONOrTable prints v as JSON, or hands stdout to table when --json is off.
func printJSONOrTable(v any, table func(io.Writer)) error {
	if viper.GetBool("json") || table == nil {
		return printJSON(v)
	}
	table(os.Stdout)
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseID(kind, s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", kind, s)
	}
	return id, nil
}

// parseTargetFlag reads name:country[:notes].
func parseTargetFlag(s string) (engine.TargetCreateOptions, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) < 2 {
		return engine.TargetCreateOptions{}, fmt.Errorf("target %q must be name:country[:notes]", s)
	}
	opts := engine.TargetCreateOptions{
		Name:    strings.TrimSpace(parts[0]),
		Country: strings.TrimSpace(parts[1]),
	}
	if opts.Name == "" || opts.Country == "" {
		return engine.TargetCreateOptions{}, errors.New("target name and country are required")
	}
	if len(parts) == 3 {
		opts.Notes = parts[2]
	}
	return opts, nil
}
