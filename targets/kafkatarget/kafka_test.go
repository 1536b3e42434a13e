package kafkatarget

import (
	"testing"

	"github.com/agilira/elog/internal/elogerr"
)

func TestNewRejectsMissingBrokers(t *testing.T) {
	_, err := New(nil, "logs", nil)
	if err == nil {
		t.Fatal("expected an error for missing brokers")
	}
	if !elogerr.HasCode(err, elogerr.CodeInvalidConfig) {
		t.Fatalf("expected CodeInvalidConfig, got %v", err)
	}
}

func TestNewRejectsMissingTopic(t *testing.T) {
	_, err := New([]string{"localhost:9092"}, "", nil)
	if err == nil {
		t.Fatal("expected an error for missing topic")
	}
	if !elogerr.HasCode(err, elogerr.CodeInvalidConfig) {
		t.Fatalf("expected CodeInvalidConfig, got %v", err)
	}
}
