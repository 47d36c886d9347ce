package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonathan/cgpa-tracker/internal/db"
	"github.com/jonathan/cgpa-tracker/internal/logging"
	"github.com/jonathan/cgpa-tracker/internal/server"
	"github.com/spf13/cobra"
)

var (
	servePort    int
	serveMigrate bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  "Start an HTTP server exposing registration, login and the per-user grade record endpoints.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default from config, PORT, or 8080)")
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "Apply the database schema before serving")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if appConfig.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable or database_url config is required")
	}
	port := appConfig.Port
	if cmd.Flags().Changed("port") {
		port = servePort
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if serveMigrate {
		if err := migrate(ctx, appConfig.DatabaseURL); err != nil {
			return err
		}
	}

	srv, err := server.New(server.Config{
		Port:        port,
		DatabaseURL: appConfig.DatabaseURL,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start(ctx)
}

// migrate applies the embedded schema.
func migrate(ctx context.Context, databaseURL string) error {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	database, err := db.Connect(connectCtx, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	return logging.TimeFunction(logger, "ensure schema", func() error {
		return database.EnsureSchema(ctx)
	})
}
