package main

import (
	"context"

	"acadassist-backend/cmd/transcript-cli/commands"
	"acadassist-backend/lib/telemetry"
)

func main() {
	telemetry.SetupFromEnv(context.Background(), "transcript-cli")
	telemetry.InitSlog(true)
	commands.ExecuteContext(context.Background())
}
