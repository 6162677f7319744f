package amqp

import "testing"

func TestRunChangedMessageRoundTrip(t *testing.T) {
	msg := NewRunChangedMessage(42, RunCreated)
	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	got, err := RunChangedMessageFromJSON(body)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if got.RunID != 42 || got.Action != RunCreated {
		t.Errorf("got %+v, want run 42 %s", got, RunCreated)
	}
}

func TestRunChangedMessageFromJSONInvalid(t *testing.T) {
	if _, err := RunChangedMessageFromJSON([]byte("not json")); err == nil {
		t.Error("expected error for malformed body")
	}
}
