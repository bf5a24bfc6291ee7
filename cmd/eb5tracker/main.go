// @title           EB-5 Investor Tracker API
// @version         1.0
// @description     Tracks EB-5 investors through the filing stages.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"eb5tracker/internal/app"
	"eb5tracker/internal/config"
	"eb5tracker/internal/models"
	"eb5tracker/internal/repositories"
)

var (
	configPath string
	seedOwner  string
)

var rootCmd = &cobra.Command{
	Use:          "eb5tracker",
	Short:        "EB-5 investor tracker server",
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		return app.Run(cfg)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the key-value table in Postgres",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		if cfg.Database.DSN == "" {
			return fmt.Errorf("database url is not configured")
		}
		db, err := app.OpenDB(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		log.Printf("[migrate] table %q ready", cfg.Database.KVTable)
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed-demo",
	Short: "Write the demo investors to the local store, or to --owner's remote collection",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		st, err := app.OpenStores(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer st.Close()
		return seedDemo(cmd.Context(), st, seedOwner)
	},
}

func seedDemo(ctx context.Context, st *app.Stores, ownerEmail string) error {
	demo := models.DemoInvestors()
	if ownerEmail == "" {
		b, err := json.Marshal(demo)
		if err != nil {
			return err
		}
		if err := st.Local.SetItem(repositories.LocalInvestorsKey, b); err != nil {
			return err
		}
		log.Printf("[seed] %d demo investors written to the local store", len(demo))
		return nil
	}

	acc, err := repositories.NewUserRepository(st.KV).GetAccountByEmail(ctx, ownerEmail)
	if err != nil {
		return fmt.Errorf("lookup %s: %w", ownerEmail, err)
	}
	if err := repositories.NewInvestorRepository(st.KV).SaveAll(ctx, acc.ID, demo); err != nil {
		return err
	}
	log.Printf("[seed] %d demo investors written for %s", len(demo), acc.Email)
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to config.yaml")
	seedCmd.Flags().StringVar(&seedOwner, "owner", "", "e-mail of the account that will own the demo investors")

	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
