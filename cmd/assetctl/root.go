package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"profilevault/internal/config"
	"profilevault/internal/database"
	"profilevault/internal/domain/asset"
	"profilevault/internal/domain/user"
	"profilevault/internal/pkg/imaging"
	"profilevault/internal/pkg/storage"
)

// app holds what every subcommand needs. It is built once, before the first RunE.
type app struct {
	db     *gorm.DB
	users  user.Repository
	assets *asset.Service
	out    outputFormat
}

func newRootCmd() *cobra.Command {
	return newRootCmdWith(&app{})
}

// newRootCmdWith wires subcommands to a; a pre-populated app skips opening the database.
func newRootCmdWith(a *app) *cobra.Command {
	var dsn, output string

	cmd := &cobra.Command{
		Use:           "assetctl",
		Short:         "Inspect and verify stored profile images",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			f, err := parseOutputFormat(output)
			if err != nil {
				return err
			}
			a.out = f
			if a.assets != nil {
				return nil
			}
			return a.open(dsn)
		},
	}

	cmd.PersistentFlags().StringVar(&dsn, "db", os.Getenv("DATABASE_URL"), "database DSN (postgres:// or sqlite path)")
	cmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "output format: table, json or yaml")

	cmd.AddCommand(
		newVersionsCmd(a),
		newVerifyCmd(a),
		newShowUserCmd(a),
		newExportCmd(a),
	)
	return cmd
}

func (a *app) open(dsn string) error {
	if dsn == "" {
		return fmt.Errorf("database DSN is required (--db or DATABASE_URL)")
	}
	cfg, err := config.LoadStorageConfig()
	if err != nil {
		return err
	}
	db, err := database.Connect(dsn)
	if err != nil {
		return fmt.Errorf("db connect failed: %w", err)
	}
	store, err := storage.NewLocalStore(cfg.Root)
	if err != nil {
		return err
	}

	a.db = db
	a.users = user.NewRepository(db)
	a.assets = asset.NewService(asset.NewRepository(db), a.users, store, imaging.NewGenerator(cfg.ImagingOptions()), *cfg)
	return nil
}
