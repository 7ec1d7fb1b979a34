package reembed

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lastLine returns the most recent carriage-return separated report.
func lastLine(buf *bytes.Buffer) string {
	reports := strings.Split(strings.TrimRight(buf.String(), "\n"), "\r")
	return reports[len(reports)-1]
}

func TestProgressTracker_ReportsAtIntervals(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 300, 100)
	tracker.Start()

	steps := []struct {
		update  int
		reports bool
	}{
		{update: 40, reports: false},
		{update: 99, reports: false},
		{update: 100, reports: true},
		{update: 150, reports: false},
		{update: 260, reports: true},
	}
	for _, step := range steps {
		buf.Reset()
		tracker.Update(step.update)
		if step.reports {
			assert.Contains(t, buf.String(), "Progress: ", "update to %d", step.update)
		} else {
			assert.Empty(t, buf.String(), "update to %d", step.update)
		}
	}
}

func TestProgressTracker_IncrementAccumulates(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 60, 20)
	tracker.Start()

	tracker.Increment(15)
	assert.Empty(t, buf.String())
	tracker.Increment(15)
	assert.Contains(t, lastLine(&buf), "30/60 (50.0%)")
	tracker.Increment(30)
	assert.Contains(t, lastLine(&buf), "60/60 (100.0%)")
	assert.Greater(t, tracker.Elapsed(), time.Duration(0))
}

func TestProgressTracker_CapsAtTotal(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 50, 10)
	tracker.Start()

	tracker.Increment(80)
	assert.Contains(t, lastLine(&buf), "50/50")
	assert.NotContains(t, buf.String(), "80/50")
}

func TestProgressTracker_FinishCompletesLine(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 40, 10)
	tracker.Start()
	tracker.Update(25)
	tracker.Finish()

	require.True(t, strings.HasSuffix(buf.String(), "\n"), "finish should end the progress line")
	final := lastLine(&buf)
	assert.Contains(t, final, "40/40 (100.0%)")
	assert.Contains(t, final, "memories/s")
	assert.NotContains(t, final, "ETA")
}

func TestProgressTracker_EstimatesRemainingTime(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 1000, 10)
	tracker.Start()
	time.Sleep(10 * time.Millisecond)

	tracker.Update(10)
	assert.Contains(t, lastLine(&buf), " - ETA ")
}

func TestProgressTracker_EmptyRun(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 0, 10)
	tracker.Start()
	tracker.Finish()

	assert.Contains(t, buf.String(), "0/0 (0.0%)")
}

func TestProgressTracker_SilentUntilStarted(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 100, 1)

	tracker.Update(50)
	tracker.Increment(10)
	tracker.Finish()

	assert.Empty(t, buf.String())
	assert.Zero(t, tracker.Elapsed())
}

func TestProgressTracker_IntervalClamped(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 3, 0)
	tracker.Start()

	tracker.Increment(1)
	assert.Contains(t, lastLine(&buf), "1/3")
}
