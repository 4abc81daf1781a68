package amqp

import (
	"testing"
	"time"
)

func TestNewEntrySyncMessage(t *testing.T) {
	msg := NewEntrySyncMessage(12345)

	if msg.ID != 12345 {
		t.Errorf("ID = %v, want 12345", msg.ID)
	}
	if msg.Timestamp.IsZero() {
		t.Error("Timestamp should not be zero")
	}
	if time.Since(msg.Timestamp) > time.Second {
		t.Error("Timestamp should be recent")
	}
}

func TestEntrySyncMessageInvalidJSON(t *testing.T) {
	if _, err := EntrySyncMessageFromJSON([]byte(`{"id": "not_a_number"}`)); err == nil {
		t.Error("expected error for invalid payload")
	}
}
