package tsdb

import (
	"testing"
	"time"
)

func BenchmarkFormatLineProtocol_Simple(b *testing.B) {
	tags := map[string]string{"module": "MB1.T1", "signal": "SIG:TEMP", "unit": "K"}
	fields := map[string]interface{}{"value": 4.2}
	ts := time.Date(2026, 2, 5, 12, 0, 0, 0, time.UTC)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		formatLineProtocol("readings", tags, fields, ts)
	}
}

func BenchmarkFormatLineProtocol_MultiField(b *testing.B) {
	tags := map[string]string{"module": "MB1.T1"}
	fields := map[string]interface{}{
		"temperature": 4.2,
		"voltage":     2.5,
		"resistance":  55.0,
		"mode":        "pid",
	}
	ts := time.Date(2026, 2, 5, 12, 0, 0, 0, time.UTC)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		formatLineProtocol("loop_state", tags, fields, ts)
	}
}

func BenchmarkFormatLineProtocol_ManyTags(b *testing.B) {
	tags := map[string]string{
		"module": "MB1.T1",
		"signal": "SIG:TEMP",
		"unit":   "K",
		"host":   "cryo-01",
		"rig":    "fridge-a",
	}
	fields := map[string]interface{}{"value": 4.2}
	ts := time.Date(2026, 2, 5, 12, 0, 0, 0, time.UTC)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		formatLineProtocol("readings", tags, fields, ts)
	}
}

func BenchmarkEscapeTag(b *testing.B) {
	for i := 0; i < b.N; i++ {
		escapeTag("signal=SIG:TEMP,unit K")
	}
}
