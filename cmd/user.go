package cmd

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/crewhq/crew/internal/db"
	"github.com/crewhq/crew/internal/models"
	"github.com/crewhq/crew/internal/output"
	"github.com/crewhq/crew/internal/report"
	"github.com/crewhq/crew/internal/security"
)

var userCmd = &cobra.Command{
	Use:     "user",
	Short:   "Manage team members",
	GroupID: "people",
}

var userAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Add a team member",
	Long: `Add a team member. The password is prompted for unless --password
is given (useful for scripting).

Examples:
  crew user add asha --name "Asha Rao" --role manager
  crew user add deven --password s3cret123`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		username := args[0]
		fullName, _ := cmd.Flags().GetString("name")
		roleStr, _ := cmd.Flags().GetString("role")
		password, _ := cmd.Flags().GetString("password")

		role, err := models.ParseRole(roleStr)
		if err != nil {
			output.Error("%v", err)
			return err
		}

		if password == "" {
			prompt := huh.NewInput().
				Title(fmt.Sprintf("Password for %s", username)).
				EchoMode(huh.EchoModePassword).
				Value(&password)
			if err := prompt.Run(); err != nil {
				output.Error("%v", err)
				return err
			}
		}

		hash, err := security.HashPassword(password)
		if err != nil {
			output.Error("%v", err)
			return err
		}

		user := &models.User{
			Username:     username,
			FullName:     fullName,
			Role:         role,
			PasswordHash: hash,
			Active:       true,
		}
		if err := database.CreateUser(user); err != nil {
			output.Error("%v", err)
			return err
		}

		logAction(database, user.ID, "user.created", "user", user.ID, username)
		output.Success("Added %s (%s, %s)", username, user.ID, role)
		return nil
	},
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List team members",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		showAll, _ := cmd.Flags().GetBool("all")
		roleStr, _ := cmd.Flags().GetString("role")
		asJSON, _ := cmd.Flags().GetBool("json")

		opts := db.ListUsersOptions{ActiveOnly: !showAll}
		if roleStr != "" {
			role, err := models.ParseRole(roleStr)
			if err != nil {
				output.Error("%v", err)
				return err
			}
			opts.Role = role
		}

		users, err := database.ListUsers(opts)
		if err != nil {
			output.Error("%v", err)
			return err
		}

		if asJSON {
			output.JSON(users)
			return nil
		}
		if len(users) == 0 {
			fmt.Println("No users found")
			return nil
		}
		for _, u := range users {
			state := ""
			if !u.Active {
				state = " (deactivated)"
			}
			fmt.Printf("%s  %-12s %-8s %s%s\n", u.ID, u.Username, u.Role, u.FullName, state)
		}
		return nil
	},
}

var userActivateCmd = &cobra.Command{
	Use:   "activate <username>",
	Short: "Reactivate a team member",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setUserActive(args[0], true)
	},
}

var userDeactivateCmd = &cobra.Command{
	Use:   "deactivate <username>",
	Short: "Deactivate a team member",
	Long:  `Deactivate a team member. Their history is kept but they no longer appear in listings or reports.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			ok := false
			prompt := huh.NewConfirm().
				Title(fmt.Sprintf("Deactivate %s?", args[0])).
				Value(&ok)
			if err := prompt.Run(); err != nil {
				output.Error("%v", err)
				return err
			}
			if !ok {
				fmt.Println("Cancelled")
				return nil
			}
		}
		return setUserActive(args[0], false)
	},
}

func setUserActive(username string, active bool) error {
	database, err := openDB()
	if err != nil {
		return err
	}
	defer database.Close()

	user, err := database.GetUserByUsername(username)
	if err != nil {
		output.Error("%v", err)
		return err
	}
	if err := database.SetUserActive(user.ID, active); err != nil {
		output.Error("%v", err)
		return err
	}

	verb := "deactivated"
	action := "user.deactivated"
	if active {
		verb = "activated"
		action = "user.activated"
	}
	logAction(database, user.ID, action, "user", user.ID, username)
	output.Success("%s %s", username, verb)
	return nil
}

var userImportCmd = &cobra.Command{
	Use:   "import <file.xlsx>",
	Short: "Import team members from a spreadsheet",
	Long: `Import team members from an .xlsx workbook. The first sheet needs a
"username" header column; "full name" and "role" columns are optional.
Imported users get a random password and must have it reset before login.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		rows, err := report.ReadUserSheet(args[0])
		if err != nil {
			output.Error("%v", err)
			return err
		}

		imported := 0
		for _, row := range rows {
			username := row["username"]
			if _, err := database.GetUserByUsername(username); err == nil {
				output.Warning("skipping %s: already exists", username)
				continue
			}

			roleStr := row["role"]
			if roleStr == "" {
				roleStr = string(models.RoleMember)
			}
			role, err := models.ParseRole(roleStr)
			if err != nil {
				output.Warning("skipping %s: %v", username, err)
				continue
			}

			// Unusable until reset; the hash never matches a bcrypt check.
			_, tokenHash, err := security.GenerateToken()
			if err != nil {
				output.Error("%v", err)
				return err
			}
			user := &models.User{
				Username:     username,
				FullName:     row["full name"],
				Role:         role,
				PasswordHash: tokenHash,
				Active:       true,
			}
			if err := database.CreateUser(user); err != nil {
				output.Error("%v", err)
				return err
			}
			logAction(database, user.ID, "user.imported", "user", user.ID, username)
			imported++
		}

		output.Success("Imported %d users from %s", imported, args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userAddCmd)
	userCmd.AddCommand(userListCmd)
	userCmd.AddCommand(userActivateCmd)
	userCmd.AddCommand(userDeactivateCmd)
	userCmd.AddCommand(userImportCmd)

	userAddCmd.Flags().String("name", "", "Full name")
	userAddCmd.Flags().StringP("role", "r", "member", "Role (admin, manager, member)")
	userAddCmd.Flags().String("password", "", "Password (prompted when omitted)")

	userListCmd.Flags().BoolP("all", "a", false, "Include deactivated users")
	userListCmd.Flags().String("role", "", "Filter by role")
	userListCmd.Flags().Bool("json", false, "Output as JSON")

	userDeactivateCmd.Flags().BoolP("yes", "y", false, "Skip confirmation")
}
