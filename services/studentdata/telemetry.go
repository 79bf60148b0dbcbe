package studentdata

import "acadassist-backend/lib/telemetry"

var tracer = telemetry.Tracer("acadassist.services.studentdata")
