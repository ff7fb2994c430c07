package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lastmile-ops/depot-cli/internal/model"
)

func TestPickup_VerificationFailed(t *testing.T) {
	out := Pickup(PickupInput{Reason: "customer verification failed at door"})
	assert.Equal(t, model.PickupRVP, out.Category)
	assert.Equal(t, "customer verification failed at door", out.Reason)
}

func TestPickup_VerificationFailedLocalized(t *testing.T) {
	out := Pickup(PickupInput{Reason: "فشل التحقق من العميل"})
	assert.Equal(t, model.PickupRVP, out.Category)
}

func TestPickup_PhoneOff(t *testing.T) {
	out := Pickup(PickupInput{Reason: "Phone switched off all day"})
	assert.Equal(t, model.PickupWeb, out.Category)
}

func TestPickup_RuleOrder_VerificationBeatsCancelled(t *testing.T) {
	// Reason matches both the verification set and the refusal set; the
	// verification rule is evaluated first and must win.
	out := Pickup(PickupInput{
		Reason: "VERIFICATION FAILED - CUSTOMER REFUSED TO SHOW ID",
		State:  "CANCELLED",
	})
	assert.Equal(t, model.PickupRVP, out.Category)
}

func TestPickup_CancelledByState(t *testing.T) {
	out := Pickup(PickupInput{State: "PICKUP FAILED", Reason: ""})
	assert.Equal(t, model.PickupCancelled, out.Category)
	assert.Empty(t, out.Reason)
	assert.Equal(t, placeholderCancel, out.CancelReason)
}

func TestPickup_CancelledTruncatedState(t *testing.T) {
	// Source exports sometimes truncate the state column.
	out := Pickup(PickupInput{State: "Pickup Faile"})
	assert.Equal(t, model.PickupCancelled, out.Category)
}

func TestPickup_CancelledByOperation(t *testing.T) {
	out := Pickup(PickupInput{Operation: "ORDER CANCELLED", CancelReason: "changed mind"})
	assert.Equal(t, model.PickupCancelled, out.Category)
	assert.Equal(t, "changed mind", out.CancelReason)
}

func TestPickup_Picked(t *testing.T) {
	for _, state := range []string{
		"Received at warehouse", "PICKED", "pickup success",
		"In transit between hubs",
	} {
		out := Pickup(PickupInput{State: state})
		assert.Equal(t, model.PickupPicked, out.Category, "state %q", state)
	}
}

func TestPickup_FailedByReason(t *testing.T) {
	out := Pickup(PickupInput{Reason: "no answer  from merchant", State: "OUT"})
	assert.Equal(t, model.PickupFailed, out.Category)
	// Reason is recorded whitespace-collapsed.
	assert.Equal(t, "no answer from merchant", out.Reason)
}

func TestPickup_FailedByState(t *testing.T) {
	out := Pickup(PickupInput{State: "ATTEMPTED"})
	assert.Equal(t, model.PickupFailed, out.Category)
	assert.Equal(t, placeholderFailed, out.Reason)
}

func TestPickup_DefaultOFD(t *testing.T) {
	out := Pickup(PickupInput{State: "SCHEDULED FOR TOMORROW"})
	assert.Equal(t, model.PickupOFD, out.Category)
	assert.Empty(t, out.Reason)
}

func TestPickup_CancelledBeatsPicked(t *testing.T) {
	// CANCELLED in state outranks a success token later in the list.
	out := Pickup(PickupInput{State: "CANCELLED AFTER PICKED"})
	assert.Equal(t, model.PickupCancelled, out.Category)
}
