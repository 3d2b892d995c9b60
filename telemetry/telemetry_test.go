package telemetry

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
)

func TestNoOpCollector(t *testing.T) {
	collector := noOpCollector{}

	timer := collector.Start("test")
	child := timer.Child("child")
	child.End()
	timer.End()

	var buf bytes.Buffer
	collector.Report(&buf)
	assert.Equal(t, 0, buf.Len())
}

func TestFromContextReturnsNoOpWhenMissing(t *testing.T) {
	collector := FromContext(context.Background())
	_, ok := collector.(noOpCollector)
	assert.True(t, ok, "got %T", collector)
}

func TestWithCollector(t *testing.T) {
	collector := NewTimingCollector()
	ctx := WithCollector(context.Background(), collector)

	retrieved, ok := FromContext(ctx).(*TimingCollector)
	assert.True(t, ok)
	assert.True(t, retrieved == collector)

	StartTimer(ctx, "ledger.load").End()
	assert.Equal(t, []string{"ledger.load"}, collector.Names())
}

func TestTimingCollectorNesting(t *testing.T) {
	collector := NewTimingCollector()

	load := collector.Start("ledger.load")
	accounts := collector.Start("accounts")
	accounts.End()
	txns := load.Child("transactions")
	txns.Child("splits").End()
	txns.End()
	load.End()

	// A timer started after the root ended becomes a second root.
	collector.Start("ledger.export").End()

	assert.Equal(t, []string{"ledger.load", "accounts", "transactions", "splits", "ledger.export"}, collector.Names())

	var buf bytes.Buffer
	collector.Report(&buf)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, 5, len(lines))
	assert.True(t, strings.HasPrefix(lines[0], "ledger.load: "))
	assert.True(t, strings.HasPrefix(lines[1], "├─ accounts: "))
	assert.True(t, strings.HasPrefix(lines[2], "└─ transactions: "))
	assert.True(t, strings.HasPrefix(lines[3], "   └─ splits: "))
	assert.True(t, strings.HasPrefix(lines[4], "ledger.export: "))
}

func TestEndTwice(t *testing.T) {
	collector := NewTimingCollector()
	outer := collector.Start("outer")
	inner := collector.Start("inner")
	inner.End()
	inner.End()
	collector.Start("sibling").End()
	outer.End()

	assert.Equal(t, []string{"outer", "inner", "sibling"}, collector.Names())
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		duration time.Duration
		want     string
	}{
		{1 * time.Millisecond, "1ms"},
		{100 * time.Millisecond, "100ms"},
		{999 * time.Millisecond, "999ms"},
		{1 * time.Second, "1.00s"},
		{1500 * time.Millisecond, "1.50s"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, formatDuration(tt.duration))
		})
	}
}

func TestSlowMarker(t *testing.T) {
	start := time.Now()
	root := &timerNode{name: "root", start: start, end: start.Add(time.Second)}
	root.children = []*timerNode{
		{name: "fast", start: start, end: start.Add(time.Millisecond), parent: root},
		{name: "slow", start: start, end: start.Add(200 * time.Millisecond), parent: root},
	}

	var buf bytes.Buffer
	formatTimingTree(&buf, root)
	out := buf.String()
	assert.Contains(t, out, "├─ fast: 1ms\n")
	assert.Contains(t, out, "└─ slow: 200ms (slow)\n")
}

func TestEmptyReport(t *testing.T) {
	var buf bytes.Buffer
	NewTimingCollector().Report(&buf)
	assert.Equal(t, 0, buf.Len())
}
