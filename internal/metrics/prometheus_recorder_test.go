package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveStepDuration("increment_build", 15*time.Millisecond)
	pr.IncStepResult("increment_build", ResultSuccess)
	pr.IncStepResult("upload", ResultFailed)
	pr.ObserveReleaseDuration(3 * time.Second)
	pr.IncReleaseOutcome(OutcomeFailed)
	pr.ObserveTransferDuration("cotta-1.0b6.jar", time.Second, true)
	pr.IncTransferRetry("report")
	pr.IncTransferRetry("report")
	pr.SetBuildNumber(6)

	assert.Equal(t, 1.0, testutil.ToFloat64(pr.stepResults.WithLabelValues("increment_build", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pr.releaseOutcome.WithLabelValues("failed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(pr.transferRetries.WithLabelValues("report")))
	assert.Equal(t, 6.0, testutil.ToFloat64(pr.buildNumber))

	n, err := testutil.GatherAndCount(reg, "cottarelease_step_results_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestWriteTextfile(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	pr.SetBuildNumber(42)
	pr.IncReleaseOutcome(OutcomeReleased)

	path := filepath.Join(t.TempDir(), "textfile", "cottarelease.prom")
	require.NoError(t, pr.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	body := string(data)
	assert.True(t, strings.Contains(body, "cottarelease_build_number 42"), body)
	assert.True(t, strings.Contains(body, `cottarelease_release_outcomes_total{outcome="released"} 1`), body)
}

func TestNilRecorderIsSafe(t *testing.T) {
	var pr *PrometheusRecorder
	pr.ObserveStepDuration("x", time.Second)
	pr.IncStepResult("x", ResultSuccess)
	pr.SetBuildNumber(1)
}
