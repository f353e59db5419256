package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/crewhq/crew/internal/config"
	"github.com/crewhq/crew/internal/db"
	"github.com/crewhq/crew/internal/models"
	"github.com/crewhq/crew/internal/output"
)

var (
	version string
	baseDir string
)

// SetVersion sets the version string
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

var rootCmd = &cobra.Command{
	Use:   "crew",
	Short: "Team task, delegation and help-ticket management",
	Long: `crew - A small team management CLI.

Tracks per-person checklist tasks, delegated work, help tickets and a
weekly performance report, all backed by a local SQLite database in the
.crew directory.`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initBaseDir)

	rootCmd.AddGroup(
		&cobra.Group{ID: "core", Title: "Core Commands:"},
		&cobra.Group{ID: "people", Title: "People Commands:"},
		&cobra.Group{ID: "info", Title: "Info Commands:"},
	)
}

func initBaseDir() {
	var err error
	baseDir, err = os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot determine working directory: %v\n", err)
		os.Exit(1)
	}
}

// getBaseDir returns the base directory for the checkout
func getBaseDir() string {
	return baseDir
}

// openDB opens the database, reporting a friendly hint when the
// checkout was never initialized.
func openDB() (*db.DB, error) {
	database, err := db.Open(getBaseDir())
	if err != nil {
		output.Error("%v", err)
		return nil, err
	}
	return database, nil
}

// currentUser resolves the configured current user, required by
// commands that attribute actions to someone.
func currentUser(database *db.DB) (*models.User, error) {
	username, err := config.GetCurrentUser(database.BaseDir())
	if err != nil {
		return nil, err
	}
	if username == "" {
		return nil, fmt.Errorf("no current user set, run 'crew use <username>' first")
	}
	user, err := database.GetUserByUsername(username)
	if err != nil {
		return nil, fmt.Errorf("current user %q: %w", username, err)
	}
	if !user.Active {
		return nil, fmt.Errorf("current user %q is deactivated", username)
	}
	return user, nil
}

// logAction records an audit entry, ignoring failures so the primary
// operation's result is never masked.
func logAction(database *db.DB, actorID, actionType, entityType, entityID, detail string) {
	_ = database.LogAction(&models.Action{
		ActorID:    actorID,
		ActionType: actionType,
		EntityType: entityType,
		EntityID:   entityID,
		Detail:     detail,
	})
}
