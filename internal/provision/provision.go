// Package provision maps billing lifecycle events to the profile state
// the provisioning webhook must converge a user onto.
package provision

import "fmt"

// Event is a billing/subscription lifecycle transition reported by the
// external platform. The set is closed; anything else is rejected.
type Event string

const (
	EventProPurchase      Event = "pro_subscription_purchase"
	EventTrialStarted     Event = "trial_started"
	EventPaymentFailed    Event = "payment_failed"
	EventPaymentRecovered Event = "payment_recovered"
	EventCancelled        Event = "subscription_cancelled"
)

// BanAction is what the identity platform should do with the user's ban
// flag. "none" is a real case, not a missing value: most future events
// would leave the ban state alone.
type BanAction string

const (
	BanActionBan   BanAction = "ban"
	BanActionUnban BanAction = "unban"
	BanActionNone  BanAction = "none"
)

// Rule is the target state for one lifecycle event. An empty Role leaves
// the user's existing role unchanged; Active is always explicit.
type Rule struct {
	Role            string
	Active          bool
	CreateIfMissing bool
	BanAction       BanAction
}

// HasRole reports whether the rule prescribes a role at all.
func (r Rule) HasRole() bool {
	return r.Role != ""
}

var eventOrder = []Event{
	EventProPurchase,
	EventTrialStarted,
	EventPaymentFailed,
	EventPaymentRecovered,
	EventCancelled,
}

// Purchase and trial both open a paying/trialing relationship, so both
// grant pro and may create the account. Failure and cancellation
// deactivate and ban but never create: there is nothing to provision for
// an unknown email on a deactivating event. Recovery re-grants pro
// without creating, since the preceding failure already made the row.
var rules = map[Event]Rule{
	EventProPurchase:      {Role: "pro", Active: true, CreateIfMissing: true, BanAction: BanActionUnban},
	EventTrialStarted:     {Role: "pro", Active: true, CreateIfMissing: true, BanAction: BanActionUnban},
	EventPaymentFailed:    {Active: false, CreateIfMissing: false, BanAction: BanActionBan},
	EventPaymentRecovered: {Role: "pro", Active: true, CreateIfMissing: false, BanAction: BanActionUnban},
	EventCancelled:        {Active: false, CreateIfMissing: false, BanAction: BanActionBan},
}

// UnsupportedEventError reports an event outside the closed set.
type UnsupportedEventError struct {
	Event Event
}

func (e *UnsupportedEventError) Error() string {
	return fmt.Sprintf("unsupported event: %s", e.Event)
}

// RuleFor returns the provisioning rule for event, or an
// *UnsupportedEventError when the event is not one of the five defined
// transitions. Rules are returned by value and never mutated.
func RuleFor(event Event) (Rule, error) {
	rule, ok := rules[event]
	if !ok {
		return Rule{}, &UnsupportedEventError{Event: event}
	}
	return rule, nil
}

// SupportedEvents returns the closed event set in declaration order.
func SupportedEvents() []Event {
	out := make([]Event, len(eventOrder))
	copy(out, eventOrder)
	return out
}
