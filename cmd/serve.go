package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/crewhq/crew/internal/serve"
	"github.com/crewhq/crew/internal/settings"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the crew HTTP API server",
	Long: `Start an HTTP API server exposing tasks, tickets, delegations,
users and the weekly report over REST.

Clients authenticate with POST /v1/login and pass the returned token as
a Bearer header. GET /v1/events streams the audit log as server-sent
events for live dashboards.`,
	GroupID: "core",
	RunE:    runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8321, "Port to listen on")
	serveCmd.Flags().StringP("addr", "a", "localhost", "Address to bind to")
	serveCmd.Flags().String("cors", "", "Allowed CORS origin (e.g. http://localhost:3000)")
	serveCmd.Flags().Duration("interval", 2*time.Second, "Poll interval for SSE events")
}

func runServe(cmd *cobra.Command, args []string) error {
	dir := getBaseDir()

	database, err := openDB()
	if err != nil {
		return err
	}
	defer database.Close()

	// Limit connections for a long-running server process
	database.SetMaxOpenConns(1)

	st, err := settings.Load(dir)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	port, _ := cmd.Flags().GetInt("port")
	addr, _ := cmd.Flags().GetString("addr")
	cors, _ := cmd.Flags().GetString("cors")
	interval, _ := cmd.Flags().GetDuration("interval")

	srv := serve.NewServer(database, dir, st, serve.Config{
		Port:         port,
		Addr:         addr,
		CORSOrigin:   cors,
		PollInterval: interval,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "crew serve listening on http://%s:%d\n", addr, port)
	fmt.Fprintf(os.Stderr, "  base dir: %s\n", dir)

	if err := srv.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	fmt.Fprintf(os.Stderr, "crew serve stopped\n")
	return nil
}
