package commands

import (
	"strings"
	"testing"
)

func TestMaintenanceRunsButStaysOutOfHelp(t *testing.T) {
	h := newHarness(t)

	h.MustSendText("/maintenance")
	last, _ := h.Sender.Last()
	if want := "All systems operational."; last.Text != want {
		t.Errorf("maintenance reply = %q, want %q", last.Text, want)
	}

	h.MustSendText("anything at all")
	help, _ := h.Sender.Last()
	if strings.Contains(help.Text, "maintenance") {
		t.Errorf("help lists the hidden command: %q", help.Text)
	}
}
