package main

import (
	"context"
	"flag"
	"net/http"
	"time"

	"acadassist-backend/lib/configutil"
	"acadassist-backend/lib/notify"
	"acadassist-backend/lib/scrapers/yedion"
	"acadassist-backend/lib/serviceutil"
	"acadassist-backend/lib/sqliteutil"
	"acadassist-backend/lib/telemetry"
	"acadassist-backend/services/studentdata"
	"acadassist-backend/services/studentdata/db"
)

type PortalConfig struct {
	BaseUrl string `json:"base_url"`
	// per navigation step, not per scrape
	StepTimeoutSeconds int `json:"step_timeout_seconds"`
}

type Config struct {
	Port int `json:"port"`
	// a filesystem path, ":memory:" or a libsql:// url
	Database string             `json:"database"`
	Portal   PortalConfig       `json:"portal"`
	Email    notify.EmailConfig `json:"email"`
	// the maximum duration for one full portal scrape
	ScrapeTimeoutSeconds int `json:"scrape_timeout_seconds"`
}

func main() {
	verbose := flag.Bool("v", false, "enable verbose logging")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	InitTelemetry(ctx, *verbose)
	defer telemetry.Shutdown(context.Background())

	config, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}

	database, err := sqliteutil.OpenDB(db.Schema, config.Database)
	if err != nil {
		serviceutil.Fatal("failed to open db", err)
	}

	portal, err := yedion.NewClient(yedion.ClientOptions{
		BaseUrl:     config.Portal.BaseUrl,
		StepTimeout: time.Duration(config.Portal.StepTimeoutSeconds) * time.Second,
	})
	if err != nil {
		serviceutil.Fatal("failed to create portal client", err)
	}

	service := studentdata.NewService(database, portal, studentdata.Options{
		ScrapeTimeout: time.Duration(config.ScrapeTimeoutSeconds) * time.Second,
		Mailer:        notify.NewMailer(config.Email),
	})

	mux := http.NewServeMux()
	service.RegisterRoutes(mux)
	serviceutil.StartHttpServer(config.Port, mux)
}
