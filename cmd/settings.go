package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/crewhq/crew/internal/models"
	"github.com/crewhq/crew/internal/output"
	"github.com/crewhq/crew/internal/settings"
)

var settingsCmd = &cobra.Command{
	Use:     "settings",
	Short:   "Show or change org settings",
	GroupID: "info",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := settings.Load(getBaseDir())
		if err != nil {
			output.Error("%v", err)
			return err
		}

		fmt.Printf("org.name                        %s\n", st.Org.Name)
		fmt.Printf("org.week_start                  %s\n", st.Org.WeekStart)
		fmt.Printf("scoring.on_time_weight          %d\n", st.Scoring.OnTimeWeight)
		fmt.Printf("scoring.late_weight             %d\n", st.Scoring.LateWeight)
		fmt.Printf("tickets.auto_close_resolved_days %d\n", st.Tickets.AutoCloseResolvedDays)
		return nil
	},
}

var settingsGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := settings.Load(getBaseDir())
		if err != nil {
			output.Error("%v", err)
			return err
		}

		value, err := settingValue(st, args[0])
		if err != nil {
			output.Error("%v", err)
			return err
		}
		fmt.Println(value)
		return nil
	},
}

func settingValue(st *settings.Settings, key string) (string, error) {
	switch key {
	case "org.name":
		return st.Org.Name, nil
	case "org.week_start":
		return st.Org.WeekStart, nil
	case "scoring.on_time_weight":
		return strconv.Itoa(st.Scoring.OnTimeWeight), nil
	case "scoring.late_weight":
		return strconv.Itoa(st.Scoring.LateWeight), nil
	case "tickets.auto_close_resolved_days":
		return strconv.Itoa(st.Tickets.AutoCloseResolvedDays), nil
	}
	return "", fmt.Errorf("unknown setting %q", key)
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Long: `Change one org setting. Keys use the same dotted names 'settings show'
prints.

Examples:
  crew settings set org.name "Acme Traders"
  crew settings set scoring.on_time_weight 80
  crew settings set scoring.late_weight 20`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		actor, err := currentUser(database)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		if !actor.Role.HasPermission(models.PermEditSettings) {
			err := fmt.Errorf("role %s cannot edit settings", actor.Role)
			output.Error("%v", err)
			return err
		}

		st, err := settings.Load(getBaseDir())
		if err != nil {
			output.Error("%v", err)
			return err
		}

		key, value := args[0], args[1]
		switch key {
		case "org.name":
			st.Org.Name = value
		case "org.week_start":
			st.Org.WeekStart = value
		case "scoring.on_time_weight":
			st.Scoring.OnTimeWeight, err = strconv.Atoi(value)
		case "scoring.late_weight":
			st.Scoring.LateWeight, err = strconv.Atoi(value)
		case "tickets.auto_close_resolved_days":
			st.Tickets.AutoCloseResolvedDays, err = strconv.Atoi(value)
		default:
			err = fmt.Errorf("unknown setting %q", key)
		}
		if err != nil {
			output.Error("%v", err)
			return err
		}

		if err := st.Validate(); err != nil {
			output.Error("%v", err)
			return err
		}
		if err := settings.Save(getBaseDir(), st); err != nil {
			output.Error("%v", err)
			return err
		}

		logAction(database, actor.ID, "settings.changed", "settings", key, value)
		output.Success("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)
}
