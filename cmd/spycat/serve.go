package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"spycat/internal/app"
	"spycat/internal/breeds"
	"spycat/internal/config"
	"spycat/internal/migrate"
	"spycat/internal/server"
)

func serveCmd() *cobra.Command {
	var basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return withApp(ctx, func(ctx context.Context, a *app.App) error {
				if cmd.Flags().Changed("base-path") {
					a.Config.Server.BasePath = basePath
				}
				handler, err := server.New(server.Config{
					Engine:    a.Engine,
					BasePath:  a.Config.Server.BasePath,
					Logger:    a.Logger,
					RateLimit: a.Config.Server.RateLimit.RPS,
					Burst:     a.Config.Server.RateLimit.Burst,
				})
				if err != nil {
					return err
				}
				srv := &http.Server{Addr: a.Config.Server.Addr, Handler: handler}
				g, gctx := errgroup.WithContext(ctx)
				g.Go(func() error {
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						return err
					}
					return nil
				})
				g.Go(func() error {
					<-gctx.Done()
					sctx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
					defer cancel()
					a.Logger.Info("shutting down")
					return srv.Shutdown(sctx)
				})
				a.Logger.Info("serving spycat api",
					"addr", a.Config.Server.Addr,
					"base_path", a.Config.Server.BasePath,
					"dialect", string(a.Dialect),
					"breeds", a.Breeds.Len(),
				)
				fmt.Printf("Serving Spy Cat API on http://%s%s (OpenAPI at /openapi.json, Swagger UI at /docs)\n", a.Config.Server.Addr, a.Config.Server.BasePath)
				return g.Wait()
			})
		},
	}
	cmd.Flags().StringVar(&basePath, "base-path", "", "API base path (overrides config)")
	return cmd
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				v, err := migrate.Version(a.DB)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{"dialect": a.Dialect, "version": v})
				}
				fmt.Printf("%s schema at version %d\n", a.Dialect, v)
				return nil
			})
		},
	}
	return cmd
}

func configCmd() *cobra.Command {
	cfg := &cobra.Command{
		Use:   "config",
		Short: "Manage spycat.yml",
	}
	cfg.AddCommand(configInitCmd())
	cfg.AddCommand(configShowCmd())
	cfg.AddCommand(configValidateCmd())
	return cfg
}

func configInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default spycat.yml into the workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			fmt.Println("wrote", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func configShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(cfg)
			}
			out, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			fmt.Print(string(out))
			return nil
		},
	}
	return cmd
}

func configValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the effective config",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := loadConfig()
			if viper.GetBool("json") {
				msg := ""
				if err != nil {
					msg = err.Error()
				}
				return printJSON(map[string]any{"ok": err == nil, "error": msg})
			}
			if err != nil {
				return err
			}
			fmt.Println("config OK")
			return nil
		},
	}
	return cmd
}

func breedsCmd() *cobra.Command {
	b := &cobra.Command{
		Use:   "breeds",
		Short: "Inspect the allowed breed list",
	}
	b.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List allowed breeds",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			set, err := breeds.Load(cmd.Context(), breeds.Source{
				Location: cfg.Breeds.Source,
				S3: breeds.S3Options{
					Region:    cfg.Breeds.S3.Region,
					Endpoint:  cfg.Breeds.S3.Endpoint,
					PathStyle: cfg.Breeds.S3.PathStyle,
				},
			})
			if err != nil {
				return err
			}
			names := set.Names()
			return printJSONOrTable(names, renderBreeds(names))
		},
	})
	return b
}
