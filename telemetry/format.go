package telemetry

import (
	"fmt"
	"io"
	"time"
)

// slowThreshold marks operations worth a second look in a report.
const slowThreshold = 100 * time.Millisecond

// formatTimingTree writes root and its children as an indented tree:
//
//	ledger.load: 12ms
//	├─ accounts (140): 1ms
//	└─ transactions (2210): 9ms
func formatTimingTree(w io.Writer, root *timerNode) {
	_, _ = fmt.Fprintf(w, "%s: %s\n", root.name, formatDuration(root.duration()))
	for i, child := range root.children {
		formatNode(w, child, "", i == len(root.children)-1)
	}
}

func formatNode(w io.Writer, node *timerNode, prefix string, isLast bool) {
	branch, extension := "├─ ", "│  "
	if isLast {
		branch, extension = "└─ ", "   "
	}

	d := node.duration()
	marker := ""
	if d >= slowThreshold {
		marker = " (slow)"
	}
	_, _ = fmt.Fprintf(w, "%s%s%s: %s%s\n", prefix, branch, node.name, formatDuration(d), marker)

	for i, child := range node.children {
		formatNode(w, child, prefix+extension, i == len(node.children)-1)
	}
}

// formatDuration shows milliseconds below one second and seconds above.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.0fms", float64(d)/float64(time.Millisecond))
	}
	return fmt.Sprintf("%.2fs", float64(d)/float64(time.Second))
}
