package service

import "fmt"

// ProgressStatus is the state of one file in a batch.
type ProgressStatus string

const (
	ProgressPending  ProgressStatus = "pending"
	ProgressWorking  ProgressStatus = "working"
	ProgressComplete ProgressStatus = "complete"
	ProgressFailed   ProgressStatus = "failed"
)

// ProgressEvent reports a file moving through a batch translation.
type ProgressEvent struct {
	Path    string
	Status  ProgressStatus
	Message string
}

// FormatProgress formats a ProgressEvent as a human-readable status line.
func FormatProgress(event ProgressEvent) string {
	switch event.Status {
	case ProgressPending:
		return fmt.Sprintf("  ○ %s (pending)", event.Path)
	case ProgressWorking:
		return fmt.Sprintf("  ● %s...", event.Path)
	case ProgressComplete:
		return fmt.Sprintf("  ✓ %s", event.Path)
	case ProgressFailed:
		return fmt.Sprintf("  ✗ %s failed: %s", event.Path, event.Message)
	default:
		return fmt.Sprintf("  ? %s (unknown status)", event.Path)
	}
}
