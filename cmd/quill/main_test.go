package main

import (
	"testing"

	"go.uber.org/zap"

	"chosenoffset.com/emberfall/internal/quill"
)

func TestExitStatus(t *testing.T) {
	tests := []struct {
		status    quill.Status
		requested int
		want      int
	}{
		{quill.Finished, -1, 0},
		{quill.Halted, -1, 1},
		{quill.Aborted, -1, 2},
		{quill.Halted, 1, 1},
		{quill.Finished, 3, 3},
	}
	for _, tt := range tests {
		if got := exitStatus(tt.status, tt.requested); got != tt.want {
			t.Errorf("exitStatus(%v, %d) = %d, want %d", tt.status, tt.requested, got, tt.want)
		}
	}
}

func TestEchoBridge(t *testing.T) {
	ok, out := echoBridge{log: zap.NewNop()}.Execute("teleport 1 2")
	if !ok || out != "teleport 1 2" {
		t.Errorf("Execute = %v %q", ok, out)
	}
}
