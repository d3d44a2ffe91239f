package adapter

import (
	"testing"

	"github.com/google/go-dap"

	"github.com/ctagard/chrome-dap-bridge/internal/config"
)

func TestSendTerminatedCarriesRestartHint(t *testing.T) {
	sink := &recordingSink{}
	a := New(sink)
	a.cfg = &config.AttachConfig{Restart: true}

	a.sendTerminated()
	a.sendTerminated()

	events := sink.byName("terminated")
	if len(events) != 1 {
		t.Fatalf("got %d terminated events, want 1", len(events))
	}
	body := events[0].(*dap.TerminatedEvent).Body
	if string(body.Restart) != "true" {
		t.Errorf("Restart = %q, want the restart hint", body.Restart)
	}
}

func TestSendTerminatedWithoutRestart(t *testing.T) {
	sink := &recordingSink{}
	a := New(sink)

	a.sendTerminated()

	events := sink.byName("terminated")
	if len(events) != 1 {
		t.Fatalf("got %d terminated events, want 1", len(events))
	}
	if body := events[0].(*dap.TerminatedEvent).Body; len(body.Restart) != 0 {
		t.Errorf("Restart = %q, want empty", body.Restart)
	}
}
