package promexport

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/agilira/elog/stats"
)

func TestCollectorExposesRegisteredTarget(t *testing.T) {
	c := NewCollector()
	s := stats.New(4)
	s.Add(0, stats.MsgWritten, 7)
	c.AddTarget("console", s)

	reg := prometheus.NewRegistry()
	if err := reg.Register(c); err != nil {
		t.Fatal(err)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}

	var found bool
	for _, mf := range families {
		if mf.GetName() != "elog_target_messages_written_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			if m.GetCounter().GetValue() == 7 {
				found = true
			}
		}
	}
	if !found {
		t.Fatal("expected elog_target_messages_written_total=7 for console target")
	}
}

func TestCollectorRemoveTargetStopsExposition(t *testing.T) {
	c := NewCollector()
	s := stats.New(2)
	c.AddTarget("tmp", s)
	c.RemoveTarget("tmp")

	reg := prometheus.NewRegistry()
	reg.MustRegister(c)

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	for _, mf := range families {
		if len(mf.GetMetric()) != 0 {
			t.Fatalf("expected no series after removal, got %v in %s", mf.GetMetric(), mf.GetName())
		}
	}
}
