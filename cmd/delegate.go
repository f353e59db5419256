package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/crewhq/crew/internal/db"
	"github.com/crewhq/crew/internal/models"
	"github.com/crewhq/crew/internal/output"
)

var delegateCmd = &cobra.Command{
	Use:     "delegate",
	Short:   "Hand work to someone and track it",
	GroupID: "core",
}

var delegateAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Delegate a piece of work",
	Long: `Delegate a piece of work to another team member with a planned date.
The original date is pinned: later revisions move the planned date but
the slip stays visible in reports.

Examples:
  crew delegate add "Collect vendor quotes" --to deven --date +3d`,
	Args: cobra.ExactArgs(1),
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

		toName, _ := cmd.Flags().GetString("to")
		to, err := database.GetUserByUsername(toName)
		if err != nil {
			output.Error("%v", err)
			return err
		}

		dateStr, _ := cmd.Flags().GetString("date")
		planned, err := parseDate(dateStr)
		if err != nil {
			output.Error("%v", err)
			return err
		}

		d := &models.Delegation{
			Title:       args[0],
			FromID:      actor.ID,
			ToID:        to.ID,
			PlannedDate: planned,
		}
		if err := database.CreateDelegation(d); err != nil {
			output.Error("%v", err)
			return err
		}

		logAction(database, actor.ID, "delegation.created", "delegation", d.ID, d.Title)
		output.Success("Delegated %s to %s, planned %s", d.ID, to.Username, planned.Format("2006-01-02"))
		return nil
	},
}

var delegateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List delegations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		toName, _ := cmd.Flags().GetString("to")
		fromName, _ := cmd.Flags().GetString("from")
		pending, _ := cmd.Flags().GetBool("pending")
		asJSON, _ := cmd.Flags().GetBool("json")

		opts := db.ListDelegationsOptions{PendingOnly: pending}
		if toName != "" {
			user, err := database.GetUserByUsername(toName)
			if err != nil {
				output.Error("%v", err)
				return err
			}
			opts.ToID = user.ID
		}
		if fromName != "" {
			user, err := database.GetUserByUsername(fromName)
			if err != nil {
				output.Error("%v", err)
				return err
			}
			opts.FromID = user.ID
		}

		delegations, err := database.ListDelegations(opts)
		if err != nil {
			output.Error("%v", err)
			return err
		}

		if asJSON {
			output.JSON(delegations)
			return nil
		}
		if len(delegations) == 0 {
			fmt.Println("No delegations found")
			return nil
		}
		for _, d := range delegations {
			mark := "[ ]"
			if d.Done {
				mark = "[x]"
			}
			slip := ""
			if d.Revisions > 0 {
				slip = fmt.Sprintf(" (revised %dx, originally %s)", d.Revisions, d.OriginalDate.Format("2006-01-02"))
			}
			fmt.Printf("%s %s %s planned %s%s\n", mark, d.ID, d.Title, d.PlannedDate.Format("2006-01-02"), slip)
		}
		return nil
	},
}

var delegateReviseCmd = &cobra.Command{
	Use:   "revise <id>",
	Short: "Move a delegation's planned date",
	Args:  cobra.ExactArgs(1),
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

		dateStr, _ := cmd.Flags().GetString("date")
		planned, err := parseDate(dateStr)
		if err != nil {
			output.Error("%v", err)
			return err
		}

		if err := database.ReviseDelegation(args[0], planned); err != nil {
			output.Error("%v", err)
			return err
		}
		logAction(database, actor.ID, "delegation.revised", "delegation", args[0], planned.Format("2006-01-02"))
		output.Success("Revised %s to %s", args[0], planned.Format("2006-01-02"))
		return nil
	},
}

var delegateDoneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Mark a delegation done",
	Args:  cobra.ExactArgs(1),
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

		if err := database.CompleteDelegation(args[0], time.Now()); err != nil {
			output.Error("%v", err)
			return err
		}
		logAction(database, actor.ID, "delegation.completed", "delegation", args[0], "")
		output.Success("Completed %s", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(delegateCmd)
	delegateCmd.AddCommand(delegateAddCmd)
	delegateCmd.AddCommand(delegateListCmd)
	delegateCmd.AddCommand(delegateReviseCmd)
	delegateCmd.AddCommand(delegateDoneCmd)

	delegateAddCmd.Flags().String("to", "", "Username to delegate to")
	delegateAddCmd.Flags().StringP("date", "d", "", "Planned date (YYYY-MM-DD, today, tomorrow, +Nd)")
	_ = delegateAddCmd.MarkFlagRequired("to")
	_ = delegateAddCmd.MarkFlagRequired("date")

	delegateListCmd.Flags().String("to", "", "Filter by delegatee username")
	delegateListCmd.Flags().String("from", "", "Filter by delegator username")
	delegateListCmd.Flags().BoolP("pending", "p", false, "Only open delegations")
	delegateListCmd.Flags().Bool("json", false, "Output as JSON")

	delegateReviseCmd.Flags().StringP("date", "d", "", "New planned date")
	_ = delegateReviseCmd.MarkFlagRequired("date")
}
