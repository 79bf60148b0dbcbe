package commands

import (
	"encoding/json"
	"os"

	"acadassist-backend/lib/catalog"
	"acadassist-backend/lib/serviceutil"
	"acadassist-backend/lib/transcript"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var categorizeLedger *string
var categorizeCatalog *string

func init() {
	categorizeLedger = categorizeCmd.Flags().String("ledger", "ledger.json", "A ledger file produced by `scrape --out`.")
	categorizeCatalog = categorizeCmd.Flags().String("catalog", "catalog.json", "A JSON array of department catalog courses.")
	rootCmd.AddCommand(categorizeCmd)
}

func readJSONFile(path string, into any) {
	data, err := os.ReadFile(path)
	if err != nil {
		serviceutil.Fatal("failed to read "+path, err)
	}
	err = json.Unmarshal(data, into)
	if err != nil {
		serviceutil.Fatal("failed to parse "+path, err)
	}
}

var categorizeCmd = &cobra.Command{
	Use:   "categorize [--ledger <ledger.json>] [--catalog <catalog.json>]",
	Short: "Splits a scraped ledger into completed and enrolled courses using a department catalog.",
	Run: func(cmd *cobra.Command, args []string) {
		var summary transcript.Summary
		readJSONFile(*categorizeLedger, &summary)
		var courses []catalog.Course
		readJSONFile(*categorizeCatalog, &courses)

		snap := catalog.NewSnapshot(courses, catalog.DefaultLegacyOverrides())
		categorized := catalog.Categorize(summary, snap)

		completed := newTable()
		completed.AppendHeader(table.Row{"course", "grade"})
		for _, course := range categorized.Completed {
			completed.AppendRow(table.Row{course.CourseID, course.Grade})
		}
		completed.Render()

		enrolled := newTable()
		enrolled.AppendHeader(table.Row{"course", "name", "type", "credits", "semester"})
		for _, course := range categorized.Enrolled {
			enrolled.AppendRow(table.Row{
				course.CourseCode,
				course.CourseName,
				course.CourseType,
				course.CourseCredit,
				course.Semester,
			})
		}
		enrolled.AppendFooter(table.Row{"", "", "", categorized.EnrolledCreditTotal, ""})
		enrolled.Render()

		totals := newTable()
		totals.AppendHeader(table.Row{"mandatory", "elective", "general"})
		totals.AppendRow(table.Row{
			categorized.CreditTotals.Mandatory,
			categorized.CreditTotals.Elective,
			categorized.CreditTotals.General,
		})
		totals.Render()
	},
}
