package provision

import (
	"errors"
	"strings"
	"testing"
)

func TestRuleFor(t *testing.T) {
	cases := []struct {
		name            string
		event           Event
		role            string
		active          bool
		createIfMissing bool
		banAction       BanAction
	}{
		{name: "purchase", event: EventProPurchase, role: "pro", active: true, createIfMissing: true, banAction: BanActionUnban},
		{name: "trial", event: EventTrialStarted, role: "pro", active: true, createIfMissing: true, banAction: BanActionUnban},
		{name: "payment failed", event: EventPaymentFailed, role: "", active: false, createIfMissing: false, banAction: BanActionBan},
		{name: "payment recovered", event: EventPaymentRecovered, role: "pro", active: true, createIfMissing: false, banAction: BanActionUnban},
		{name: "cancelled", event: EventCancelled, role: "", active: false, createIfMissing: false, banAction: BanActionBan},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rule, err := RuleFor(tc.event)
			if err != nil {
				t.Fatalf("RuleFor(%q) error = %v", tc.event, err)
			}
			if rule.Role != tc.role {
				t.Fatalf("RuleFor(%q).Role = %q, want %q", tc.event, rule.Role, tc.role)
			}
			if rule.Active != tc.active {
				t.Fatalf("RuleFor(%q).Active = %v, want %v", tc.event, rule.Active, tc.active)
			}
			if rule.CreateIfMissing != tc.createIfMissing {
				t.Fatalf("RuleFor(%q).CreateIfMissing = %v, want %v", tc.event, rule.CreateIfMissing, tc.createIfMissing)
			}
			if rule.BanAction != tc.banAction {
				t.Fatalf("RuleFor(%q).BanAction = %q, want %q", tc.event, rule.BanAction, tc.banAction)
			}
		})
	}
}

func TestRuleTableIsTotal(t *testing.T) {
	events := SupportedEvents()
	if len(events) != 5 {
		t.Fatalf("SupportedEvents() returned %d events, want 5", len(events))
	}
	valid := map[BanAction]bool{BanActionBan: true, BanActionUnban: true, BanActionNone: true}
	for _, event := range events {
		rule, err := RuleFor(event)
		if err != nil {
			t.Fatalf("RuleFor(%q) error = %v", event, err)
		}
		if !valid[rule.BanAction] {
			t.Fatalf("RuleFor(%q).BanAction = %q, not a defined action", event, rule.BanAction)
		}
		if rule.HasRole() && rule.Role != "pro" && rule.Role != "user" {
			t.Fatalf("RuleFor(%q).Role = %q, want pro or user", event, rule.Role)
		}
	}
}

func TestRuleForUnknownEvent(t *testing.T) {
	_, err := RuleFor("tier_upgraded")
	if err == nil {
		t.Fatal("expected RuleFor to fail for an undefined event")
	}
	var unsupported *UnsupportedEventError
	if !errors.As(err, &unsupported) {
		t.Fatalf("RuleFor error = %T, want *UnsupportedEventError", err)
	}
	if unsupported.Event != "tier_upgraded" {
		t.Fatalf("UnsupportedEventError.Event = %q, want %q", unsupported.Event, "tier_upgraded")
	}
	if !strings.Contains(err.Error(), "tier_upgraded") {
		t.Fatalf("error message %q should name the event", err.Error())
	}
}

func TestSupportedEventsOrderIsStable(t *testing.T) {
	want := []Event{
		EventProPurchase,
		EventTrialStarted,
		EventPaymentFailed,
		EventPaymentRecovered,
		EventCancelled,
	}
	got := SupportedEvents()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("SupportedEvents()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	// Mutating the returned slice must not leak into the package.
	got[0] = "mutated"
	if SupportedEvents()[0] != EventProPurchase {
		t.Fatal("SupportedEvents() shares internal state with callers")
	}
}
