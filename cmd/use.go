package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crewhq/crew/internal/config"
	"github.com/crewhq/crew/internal/output"
)

var useCmd = &cobra.Command{
	Use:     "use <username>",
	Short:   "Set the current user",
	GroupID: "people",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		user, err := database.GetUserByUsername(args[0])
		if err != nil {
			output.Error("%v", err)
			return err
		}
		if !user.Active {
			err := fmt.Errorf("user %s is deactivated", user.Username)
			output.Error("%v", err)
			return err
		}

		if err := config.SetCurrentUser(getBaseDir(), user.Username); err != nil {
			output.Error("%v", err)
			return err
		}
		output.Success("Now acting as %s", user.Username)
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:     "whoami",
	Short:   "Show the current user",
	GroupID: "people",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		user, err := currentUser(database)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		fmt.Printf("%s (%s, %s)\n", user.Username, user.ID, user.Role)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(useCmd)
	rootCmd.AddCommand(whoamiCmd)
}
