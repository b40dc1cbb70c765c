package events

import (
	"encoding/json"
	"testing"
)

func TestEventBus(t *testing.T) {
	bus := NewEventBus()

	var received *Event
	var callCount int

	bus.Subscribe(EventBorrowApproved, func(event *Event) error {
		received = event
		callCount++
		return nil
	})

	payload := BorrowEventPayload{RequestID: 1, ItemName: "Brunton Compass", Status: "approved"}
	err := bus.PublishJSON(EventBorrowApproved, payload)
	if err != nil {
		t.Fatalf("PublishJSON failed: %v", err)
	}

	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}

	if received.Type != EventBorrowApproved {
		t.Errorf("expected type %s, got %s", EventBorrowApproved, received.Type)
	}

	var decoded BorrowEventPayload
	if err := json.Unmarshal(received.Payload, &decoded); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}

	if decoded.ItemName != "Brunton Compass" {
		t.Errorf("expected item name Brunton Compass, got %s", decoded.ItemName)
	}
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	bus := NewEventBus()
	var count1, count2 int

	bus.Subscribe(EventIssueReported, func(_ *Event) error { count1++; return nil })
	bus.Subscribe(EventIssueReported, func(_ *Event) error { count2++; return nil })
	bus.Subscribe(EventIssueResolved, func(_ *Event) error { t.Error("wrong type delivered"); return nil })

	if err := bus.PublishJSON(EventIssueReported, IssueEventPayload{IssueID: 3}); err != nil {
		t.Fatalf("PublishJSON failed: %v", err)
	}

	if count1 != 1 || count2 != 1 {
		t.Errorf("expected both subscribers called once, got %d and %d", count1, count2)
	}
}

func TestEventBusNilSafe(t *testing.T) {
	var bus *EventBus
	if err := bus.PublishJSON(EventBorrowSubmitted, nil); err != nil {
		t.Errorf("publishing on nil bus should be a no-op, got %v", err)
	}
}
