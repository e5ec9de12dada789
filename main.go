package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"initiativehub/auth"
	"initiativehub/config"
	"initiativehub/db"
	"initiativehub/logger"
)

var (
	// Global flags
	configPath string
)

// rootCmd runs the server when no subcommand is given.
var rootCmd = &cobra.Command{
	Use:   "initiativehub",
	Short: "Executive initiative tracking dashboard",
	Long: `initiativehub serves the initiative tracking API and dashboard roll-ups.

Run without arguments to start the HTTP server.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the YAML configuration file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(userCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads the configuration and builds the process logger.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

// openDatabase connects and brings the schema up to date.
func openDatabase(cfg *config.Config, log *zap.Logger) (*gorm.DB, func(), error) {
	conn, err := db.Open(cfg.Database, log)
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
	}
	if err := db.Migrate(conn); err != nil {
		closeDB()
		return nil, nil, err
	}
	return conn, closeDB, nil
}

// bootstrapAdmin returns the admin account Seed should create, or nil when
// none is configured.
func bootstrapAdmin(cfg *config.Config, authService *auth.Service) (*db.Admin, error) {
	if cfg.Auth.AdminEmail == "" || cfg.Auth.AdminPassword == "" {
		return nil, nil
	}
	hash, err := authService.HashPassword(cfg.Auth.AdminPassword)
	if err != nil {
		return nil, fmt.Errorf("admin password: %w", err)
	}
	return &db.Admin{
		Email:        cfg.Auth.AdminEmail,
		Name:         "Administrator",
		PasswordHash: hash,
	}, nil
}
