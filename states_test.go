package jobq

import (
	"testing"
)

func TestStatus_StringAndParse(t *testing.T) {
	if StatusNotFound.String() != "not_found" || StatusQueued.String() != "queued" || StatusInProgress.String() != "in_progress" || StatusComplete.String() != "complete" {
		t.Fatal("unexpected status string values")
	}
	for _, s := range AllStatuses {
		if got, err := ParseStatus(s.String()); err != nil || got != s {
			t.Fatalf("parse valid status %q failed: %v", s, err)
		}
	}
	if _, err := ParseStatus("deferred"); err == nil {
		t.Fatal("expected error for invalid status")
	} else if err != ErrUnknownStatus {
		t.Fatalf("expected ErrUnknownStatus, got %v", err)
	}
}
