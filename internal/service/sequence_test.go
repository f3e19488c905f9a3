package service

import (
	"testing"
)

func TestNextRevisionNumber(t *testing.T) {
	previous := previousRevision()

	if got := nextRevisionNumber(previous, 10, 5); got != 2 {
		t.Errorf("nextRevisionNumber = %d, want 2", got)
	}

	previous.RevisionNumber = 41
	if got := nextRevisionNumber(previous, 10, 5); got != 42 {
		t.Errorf("nextRevisionNumber = %d, want 42", got)
	}
}

func TestNextRevisionNumberIdentityMismatchPanics(t *testing.T) {
	tests := []struct {
		name   string
		pageID int64
		fileID int64
	}{
		{name: "wrong file", pageID: 10, fileID: 6},
		{name: "wrong page", pageID: 11, fileID: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Fatal("expected panic on inconsistent identity")
				}
			}()
			nextRevisionNumber(previousRevision(), tt.pageID, tt.fileID)
		})
	}
}
