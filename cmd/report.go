package cmd

import (
	"fmt"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/crewhq/crew/internal/models"
	"github.com/crewhq/crew/internal/output"
	"github.com/crewhq/crew/internal/report"
	"github.com/crewhq/crew/internal/settings"
)

var reportCmd = &cobra.Command{
	Use:     "report",
	Short:   "Weekly performance reports",
	GroupID: "info",
}

var reportWeeklyCmd = &cobra.Command{
	Use:   "weekly",
	Short: "Render last week's performance report",
	Long: `Score every active member on the tasks and delegations that were due
last week. On-time and late percentages are weighted into a single
score using the weights from settings.

Examples:
  crew report weekly
  crew report weekly --for 2026-08-12
  crew report weekly --xlsx weekly.xlsx`,
	Args: cobra.NoArgs,
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
		if !actor.Role.HasPermission(models.PermViewReports) {
			err := fmt.Errorf("role %s cannot view reports", actor.Role)
			output.Error("%v", err)
			return err
		}

		st, err := settings.Load(getBaseDir())
		if err != nil {
			output.Error("%v", err)
			return err
		}

		// The report covers the week before the reference day.
		ref := time.Now()
		if forStr, _ := cmd.Flags().GetString("for"); forStr != "" {
			ref, err = parseDate(forStr)
			if err != nil {
				output.Error("%v", err)
				return err
			}
			// LastWeek looks back from its reference, so step one week
			// forward to report on the week containing --for.
			ref = ref.AddDate(0, 0, 7)
		}
		week := report.LastWeek(ref, st.Org.WeekStart)

		scores, err := report.ComputeWeekly(database, st, week)
		if err != nil {
			output.Error("%v", err)
			return err
		}

		if path, _ := cmd.Flags().GetString("xlsx"); path != "" {
			if err := report.WriteXLSX(path, week, scores); err != nil {
				output.Error("%v", err)
				return err
			}
			output.Success("Wrote %s", path)
			return nil
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			output.JSON(scores)
			return nil
		}

		md := report.RenderMarkdown(st.Org.Name, week, scores)

		plain, _ := cmd.Flags().GetBool("plain")
		if plain {
			fmt.Print(md)
			return nil
		}

		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(output.TermWidth()),
		)
		if err != nil {
			// Fall back to the raw markdown rather than failing the report.
			fmt.Print(md)
			return nil
		}
		rendered, err := renderer.Render(md)
		if err != nil {
			fmt.Print(md)
			return nil
		}
		fmt.Print(rendered)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(reportWeeklyCmd)

	reportWeeklyCmd.Flags().String("for", "", "Report on the week containing this date")
	reportWeeklyCmd.Flags().Bool("plain", false, "Print raw markdown")
	reportWeeklyCmd.Flags().Bool("json", false, "Output as JSON")
	reportWeeklyCmd.Flags().String("xlsx", "", "Write the report to an .xlsx file")
}
