package observability

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/x", 200, time.Millisecond)
	m.IncLedgerUpsert("quiz", "ok")
	m.ApiInflightInc()
	var buf bytes.Buffer
	require.NoError(t, m.WritePrometheus(&buf))
	assert.Empty(t, buf.String())
}

func TestWritePrometheus(t *testing.T) {
	m := newMetrics()
	m.ObserveAPI("POST", "/api/progress", 200, 30*time.Millisecond)
	m.IncLedgerUpsert("lesson", "ok")
	m.IncLedgerUpsert("lesson", "ok")
	m.IncIntegrityVerdict("protect")

	var buf bytes.Buffer
	require.NoError(t, m.WritePrometheus(&buf))
	out := buf.String()
	assert.Contains(t, out, `cl_api_requests_total{method="POST",route="/api/progress",status="200"} 1`)
	assert.Contains(t, out, `cl_api_request_duration_seconds_bucket{method="POST",route="/api/progress",le="0.05"} 1`)
	assert.Contains(t, out, `cl_api_request_duration_seconds_bucket{method="POST",route="/api/progress",le="0.025"} 0`)
	assert.Contains(t, out, `cl_ledger_upserts_total{kind="lesson",result="ok"} 2`)
	assert.Contains(t, out, `cl_integrity_verdicts_total{mode="protect"} 1`)
	assert.Contains(t, out, "# TYPE cl_redis_up gauge")
}

func TestLabelString(t *testing.T) {
	assert.Equal(t, "", labelString(nil, []string{"x"}))
	assert.Equal(t, `{a="1",b="unknown"}`, labelString([]string{"a", "b"}, []string{"1"}))
	assert.Equal(t, `{a="q\"x\\"}`, labelString([]string{"a"}, []string{`q"x\`}))
	assert.Equal(t, `{a="1",le="+Inf"}`, withLe(`{a="1"}`, "+Inf"))
}

func TestOtelHelpers(t *testing.T) {
	assert.Equal(t, map[string]string{"a": "1", "b": "x=y"}, parseHeaders("a=1, b=x=y, broken,=v"))
	assert.Nil(t, parseHeaders(""))
	assert.Equal(t, 0.1, sampleRatio(""))
	assert.Equal(t, 1.0, sampleRatio("4"))
	assert.Equal(t, 0.0, sampleRatio("-1"))
	assert.Equal(t, ExporterOTLP, exporterKind(OtelConfig{Endpoint: "collector:4318"}))
	assert.Equal(t, ExporterStdout, exporterKind(OtelConfig{}))
}
