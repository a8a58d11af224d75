package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCountersAndGauges(t *testing.T) {
	m := New()

	m.IncrementCounter("events_relayed")
	m.IncrementCounterBy("events_relayed", 4)
	m.SetGauge("relayer_checkpoint", 42)
	m.SetGauge("relayer_checkpoint", 17)

	require.EqualValues(t, 5, m.GetCounters()["events_relayed"])
	require.EqualValues(t, 17, m.GetGauges()["relayer_checkpoint"])
}

func TestErrorRates(t *testing.T) {
	m := New()

	m.RecordSuccess("create_reservation")
	m.RecordSuccess("create_reservation")
	m.RecordError("create_reservation")

	er := m.GetErrorRates()["create_reservation"]
	require.EqualValues(t, 3, er.Total)
	require.EqualValues(t, 1, er.Errors)
	require.InDelta(t, 33.3, er.ErrorRate, 0.1)
}

func TestTimers(t *testing.T) {
	m := New()

	m.RecordTimer("append", 10*time.Millisecond)
	m.RecordTimer("append", 30*time.Millisecond)

	stats := m.GetTimers()["append"]
	require.EqualValues(t, 2, stats.Count)
	require.EqualValues(t, 40, stats.TotalTimeMs)
	require.InDelta(t, 20.0, stats.AverageTimeMs, 0.01)
	require.EqualValues(t, 30, stats.MaxTimeMs)
}

func TestHealthChecks(t *testing.T) {
	m := New()

	m.SetHealth("database", true)
	m.SetHealth("elasticsearch", false)

	checks := m.GetHealthChecks()
	require.True(t, checks["database"])
	require.False(t, checks["elasticsearch"])
}

func TestGetAllMetricsShape(t *testing.T) {
	m := New()
	m.IncrementCounter("events_relayed")

	all := m.GetAllMetrics()
	require.Contains(t, all, "uptime_seconds")
	require.Contains(t, all, "counters")
	require.Contains(t, all, "error_rates")
}

func TestConcurrentRecording(t *testing.T) {
	m := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.IncrementCounter("events_relayed")
			m.RecordSuccess("relayer_tick")
		}()
	}
	wg.Wait()

	require.EqualValues(t, 50, m.GetCounters()["events_relayed"])
	require.EqualValues(t, 50, m.GetErrorRates()["relayer_tick"].Total)
}
