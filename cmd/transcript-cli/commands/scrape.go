package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"acadassist-backend/lib/configutil"
	"acadassist-backend/lib/restyutil"
	"acadassist-backend/lib/scrapers/yedion"
	"acadassist-backend/lib/serviceutil"
	"acadassist-backend/lib/transcript"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

type Config struct {
	PortalUrl string `json:"portal_url"`
	Username  string `json:"username"`
	Password  string `json:"password"`
}

var scrapeOut *string

func init() {
	scrapeOut = scrapeCmd.Flags().String("out", "", "Write the normalized ledger to a JSON file.")
	rootCmd.AddCommand(scrapeCmd)
}

func scrapeLedger(ctx context.Context) transcript.Summary {
	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}

	client, err := yedion.NewClient(yedion.ClientOptions{
		BaseUrl: cfg.PortalUrl,
	})
	if err != nil {
		serviceutil.Fatal("failed to initialize portal client", err)
	}
	yedion.SetRestyInstrumentOutput(restyutil.NewFilesystemOutput(".dev/resty/yedion"))

	slog.Info("scraping using user", "username", cfg.Username)

	session, err := client.OpenSession(ctx)
	if err != nil {
		serviceutil.Fatal("failed to open portal session", err)
	}
	defer session.Close()

	err = session.Login(ctx, cfg.Username, cfg.Password)
	if err != nil {
		serviceutil.Fatal("failed to login to portal", err)
	}
	report, err := session.OpenGradesReport(ctx)
	if err != nil {
		serviceutil.Fatal("failed to open grades report", err)
	}
	attempts, err := yedion.Harvest(ctx, yedion.NewReportSource(report))
	if err != nil {
		serviceutil.Fatal("failed to harvest grades report", err)
	}

	return transcript.Normalize(attempts)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [--out <path/to/ledger.json>]",
	Short: "Scrapes the grades report and prints the normalized ledger.",
	Run: func(cmd *cobra.Command, args []string) {
		t1 := time.Now()
		summary := scrapeLedger(cmd.Context())
		slog.Info("scraping time", "seconds", time.Since(t1).Seconds())

		t := newTable()
		t.AppendHeader(table.Row{"course", "grade", "credits"})
		for _, record := range summary.Records {
			grade := "-"
			if record.Grade != nil {
				grade = fmt.Sprintf("%g", *record.Grade)
			}
			t.AppendRow(table.Row{record.CourseID, grade, record.Credits})
		}
		t.AppendFooter(table.Row{
			"gpa: " + fmt.Sprintf("%.2f", summary.GPA),
			fmt.Sprintf("completed: %g", summary.CompletedCredits),
			fmt.Sprintf("total: %g", summary.TotalCredits),
		})
		t.Render()

		if *scrapeOut != "" {
			data, err := json.MarshalIndent(summary, "", "  ")
			if err != nil {
				serviceutil.Fatal("failed to marshal ledger", err)
			}
			err = os.WriteFile(*scrapeOut, data, 0600)
			if err != nil {
				serviceutil.Fatal("failed to write ledger file", err)
			}
		}
	},
}
