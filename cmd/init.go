package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/crewhq/crew/internal/db"
	"github.com/crewhq/crew/internal/output"
	"github.com/crewhq/crew/internal/settings"
)

var initCmd = &cobra.Command{
	Use:     "init",
	Short:   "Initialize crew in the current directory",
	Long:    `Create the .crew directory with an empty database and default settings.`,
	GroupID: "core",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := db.Initialize(getBaseDir())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer database.Close()

		// Re-running init must not clobber customized settings.
		settingsPath := filepath.Join(getBaseDir(), ".crew", "settings.toml")
		if _, err := os.Stat(settingsPath); os.IsNotExist(err) {
			if err := settings.Save(getBaseDir(), settings.Defaults()); err != nil {
				output.Error("%v", err)
				return err
			}
		}

		output.Success("Initialized crew in .crew/")
		output.Info("Next: 'crew user add <username>' and 'crew use <username>'")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
