package cmd

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/crewhq/crew/internal/output"
	"github.com/crewhq/crew/internal/settings"
	"github.com/crewhq/crew/pkg/board"
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Interactive task board",
	Long: `Open the interactive board for the current user's tasks, delegations
and tickets.

Keys:
  j/k      move          x/space  select row
  X        range select  a        select all
  esc      clear         enter    complete/close selected
  /        search        tab/1-3  switch tasks/delegations/tickets
  c        toggle closed q        quit`,
	GroupID: "core",
	Args:    cobra.NoArgs,
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

		st, err := settings.Load(getBaseDir())
		if err != nil {
			output.Error("%v", err)
			return err
		}

		includeClosed, _ := cmd.Flags().GetBool("all")
		all, _ := cmd.Flags().GetBool("everyone")
		assignee := actor.ID
		if all {
			assignee = ""
		}

		m := board.New(database, st, assignee, includeClosed)
		p := tea.NewProgram(m, tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			output.Error("%v", err)
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(boardCmd)

	boardCmd.Flags().BoolP("all", "a", false, "Include completed and closed items")
	boardCmd.Flags().Bool("everyone", false, "Show everyone's items, not just yours")
}
