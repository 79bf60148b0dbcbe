package main

import (
	"context"

	"acadassist-backend/lib/restyutil"
	"acadassist-backend/lib/scrapers/yedion"
	"acadassist-backend/lib/serviceutil"
	"acadassist-backend/lib/telemetry"
)

func InitTelemetry(ctx context.Context, verbose bool) {
	err := telemetry.SetupFromEnv(ctx, "acad-server")
	if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}
	telemetry.InstrumentPerfStats(ctx)

	telemetry.InitSlog(verbose)
	if !verbose {
		return
	}

	yedion.SetRestyInstrumentOutput(
		restyutil.NewFilesystemOutput(".dev/resty_telemetry/yedion"),
	)
}
