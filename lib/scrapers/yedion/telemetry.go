package yedion

import (
	"acadassist-backend/lib/restyutil"
	"acadassist-backend/lib/telemetry"
)

var tracer = telemetry.Tracer("acadassist.lib.scrapers.yedion")
var restyInstrumentOutput restyutil.InstrumentOutput

func SetRestyInstrumentOutput(out restyutil.InstrumentOutput) {
	restyInstrumentOutput = out
}
