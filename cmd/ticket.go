package cmd

import (
	"fmt"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/crewhq/crew/internal/db"
	"github.com/crewhq/crew/internal/models"
	"github.com/crewhq/crew/internal/output"
	"github.com/crewhq/crew/internal/settings"
)

var ticketPriority string

var ticketCmd = &cobra.Command{
	Use:     "ticket",
	Short:   "Manage help tickets",
	GroupID: "core",
}

var ticketOpenCmd = &cobra.Command{
	Use:   "open <title>",
	Short: "Open a help ticket",
	Long: `Open a help ticket as the current user.

Examples:
  crew ticket open "Printer jammed again" --priority high`,
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

		priority, err := models.ParsePriority(ticketPriority)
		if err != nil {
			output.Error("%v", err)
			return err
		}

		description, _ := cmd.Flags().GetString("description")
		tk := &models.Ticket{
			Title:       args[0],
			Description: description,
			RequesterID: actor.ID,
			Priority:    priority,
		}
		if err := database.CreateTicket(tk); err != nil {
			output.Error("%v", err)
			return err
		}

		logAction(database, actor.ID, "ticket.opened", "ticket", tk.ID, tk.Title)
		output.Success("Opened %s: %s", tk.ID, tk.Title)
		return nil
	},
}

var ticketListCmd = &cobra.Command{
	Use:   "list",
	Short: "List help tickets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		showAll, _ := cmd.Flags().GetBool("all")
		asJSON, _ := cmd.Flags().GetBool("json")

		// Sweep resolved tickets past the configured auto-close window.
		if st, err := settings.Load(getBaseDir()); err == nil && st.Tickets.AutoCloseResolvedDays > 0 {
			cutoff := time.Now().AddDate(0, 0, -st.Tickets.AutoCloseResolvedDays)
			if n, err := database.AutoCloseResolvedTickets(cutoff); err == nil && n > 0 {
				output.Info("Auto-closed %d resolved ticket(s)", n)
			}
		}

		opts := db.ListTicketsOptions{}
		if !showAll {
			opts.Status = []models.TicketStatus{models.TicketOpen, models.TicketInProgress}
		}

		tickets, err := database.ListTickets(opts)
		if err != nil {
			output.Error("%v", err)
			return err
		}

		if asJSON {
			output.JSON(tickets)
			return nil
		}
		if len(tickets) == 0 {
			fmt.Println("No tickets found")
			return nil
		}
		for _, tk := range tickets {
			fmt.Println(output.FormatTicketShort(&tk))
		}
		return nil
	},
}

var ticketAssignCmd = &cobra.Command{
	Use:   "assign <id> <username>",
	Short: "Assign a ticket",
	Args:  cobra.ExactArgs(2),
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
		if !actor.Role.HasPermission(models.PermResolveTickets) {
			err := fmt.Errorf("role %s cannot work tickets", actor.Role)
			output.Error("%v", err)
			return err
		}

		assignee, err := database.GetUserByUsername(args[1])
		if err != nil {
			output.Error("%v", err)
			return err
		}

		if err := database.AssignTicket(args[0], assignee.ID); err != nil {
			output.Error("%v", err)
			return err
		}
		logAction(database, actor.ID, "ticket.assigned", "ticket", db.NormalizeTicketID(args[0]), assignee.Username)
		output.Success("Assigned %s to %s", db.NormalizeTicketID(args[0]), assignee.Username)
		return nil
	},
}

var ticketResolveCmd = &cobra.Command{
	Use:   "resolve <id>",
	Short: "Resolve a ticket",
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
		if !actor.Role.HasPermission(models.PermResolveTickets) {
			err := fmt.Errorf("role %s cannot resolve tickets", actor.Role)
			output.Error("%v", err)
			return err
		}

		resolution, _ := cmd.Flags().GetString("resolution")
		if err := database.ResolveTicket(args[0], resolution, time.Now()); err != nil {
			output.Error("%v", err)
			return err
		}
		logAction(database, actor.ID, "ticket.resolved", "ticket", db.NormalizeTicketID(args[0]), resolution)
		output.Success("Resolved %s", db.NormalizeTicketID(args[0]))
		return nil
	},
}

var ticketCloseCmd = &cobra.Command{
	Use:   "close <id> [id...]",
	Short: "Close tickets",
	Long: `Close one or more tickets. Closing several at once asks for
confirmation first.`,
	Args: cobra.MinimumNArgs(1),
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

		yes, _ := cmd.Flags().GetBool("yes")
		if len(args) > 1 && !yes {
			ok := false
			prompt := huh.NewConfirm().
				Title(fmt.Sprintf("Close %d tickets?", len(args))).
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

		for _, id := range args {
			if err := database.CloseTicket(id); err != nil {
				output.Error("%v", err)
				return err
			}
			logAction(database, actor.ID, "ticket.closed", "ticket", db.NormalizeTicketID(id), "")
			output.Success("Closed %s", db.NormalizeTicketID(id))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ticketCmd)
	ticketCmd.AddCommand(ticketOpenCmd)
	ticketCmd.AddCommand(ticketListCmd)
	ticketCmd.AddCommand(ticketAssignCmd)
	ticketCmd.AddCommand(ticketResolveCmd)
	ticketCmd.AddCommand(ticketCloseCmd)

	ticketOpenCmd.Flags().VarP(
		newChoiceValue("medium", &ticketPriority, "low", "medium", "high", "urgent"),
		"priority", "p", "Priority (low, medium, high, urgent)")
	ticketOpenCmd.Flags().String("description", "", "Description text")

	ticketListCmd.Flags().BoolP("all", "a", false, "Include resolved and closed tickets")
	ticketListCmd.Flags().Bool("json", false, "Output as JSON")

	ticketResolveCmd.Flags().StringP("resolution", "r", "", "Resolution note")

	ticketCloseCmd.Flags().BoolP("yes", "y", false, "Skip confirmation")
}
