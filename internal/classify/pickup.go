package classify

import (
	"strings"

	"github.com/lastmile-ops/depot-cli/internal/model"
)

// PickupInput carries the fields of one pickup row that the decision list
// inspects. All values are raw sheet text.
type PickupInput struct {
	Reason       string
	CancelReason string
	Operation    string
	State        string
}

// PickupOutcome is the classification of one pickup row. Reason is the
// whitespace-collapsed reason to record in the reasons breakdown, empty
// when the category keeps no reason. CancelReason is set only for
// cancelled rows.
type PickupOutcome struct {
	Category     model.PickupCategory
	Reason       string
	CancelReason string
}

// Reason placeholders recorded when a row classifies into a
// reason-tracked category but carries no reason text.
const (
	placeholderRVP    = "VERIFICATION FAILED"
	placeholderWeb    = "PHONE SWITCHED OFF"
	placeholderFailed = "NO REASON PROVIDED"
	placeholderCancel = "NOT SPECIFIED"
)

// Phrase sets for the pickup decision list. Localized phrases from the
// source platform's Arabic reason texts are matched verbatim.
var (
	verificationFailedPhrases = []string{
		"VERIFICATION FAILED",
		"FAILED VERIFICATION",
		"OTP NOT VERIFIED",
		"فشل التحقق",
	}
	phoneOffPhrases = []string{
		"PHONE SWITCHED OFF",
		"MOBILE SWITCHED OFF",
		"PHONE CLOSED",
		"الهاتف مغلق",
	}
	refusalPhrases = []string{
		"CUSTOMER REFUSED",
		"CUSTOMER CANCELLED",
		"REFUSED TO RECEIVE",
		"DOES NOT WANT THE ORDER",
	}
	pickedStateTokens = []string{
		"RECEIVED",
		"PICKED",
		"SUCCESS",
		"IN TRANSIT BETWEEN HUBS",
		"ARRIVED AT SORTING FACILITY",
	}
	failureReasonPhrases = []string{
		"NO ANSWER",
		"NOT READY",
		"POSTPONED",
		"WRONG ADDRESS",
	}
	failureStateTokens = []string{
		"FAILED",
		"REJECTED",
		"ATTEMPTED",
		"RETURNED",
	}
)

// pickupRule is one entry of the ordered decision list: first matching
// rule wins, and the record function says what lands in which breakdown.
type pickupRule struct {
	Name     string
	Category model.PickupCategory
	Match    func(reason, op, state string) bool
	Record   func(in PickupInput, out *PickupOutcome)
}

// pickupRules is evaluated top-down per row. The order is a contract:
// verification failures outrank phone-off, which outranks cancellation,
// success, and generic failure; anything left defaults to ofd.
var pickupRules = []pickupRule{
	{
		Name:     "failed_verification",
		Category: model.PickupRVP,
		Match: func(reason, _, _ string) bool {
			return containsAnyPhrase(reason, verificationFailedPhrases)
		},
		Record: recordReason(placeholderRVP),
	},
	{
		Name:     "phone_off",
		Category: model.PickupWeb,
		Match: func(reason, _, _ string) bool {
			return containsAnyPhrase(reason, phoneOffPhrases)
		},
		Record: recordReason(placeholderWeb),
	},
	{
		Name:     "cancelled",
		Category: model.PickupCancelled,
		Match: func(reason, op, state string) bool {
			return containsAnyPhrase(reason, refusalPhrases) ||
				strings.Contains(op, "CANCELLED") ||
				strings.Contains(state, "CANCELLED") ||
				strings.Contains(state, "PICKUP FAILED") ||
				strings.Contains(state, "PICKUP FAILE")
		},
		Record: recordCancelReason,
	},
	{
		Name:     "picked",
		Category: model.PickupPicked,
		Match: func(_, _, state string) bool {
			return containsAnyPhrase(state, pickedStateTokens)
		},
	},
	{
		Name:     "failed",
		Category: model.PickupFailed,
		Match: func(reason, _, state string) bool {
			return containsAnyPhrase(reason, failureReasonPhrases) ||
				containsAnyPhrase(state, failureStateTokens)
		},
		Record: recordReason(placeholderFailed),
	},
}

// Pickup classifies one pickup row through the ordered decision list.
// Rows matching no rule land in the default ofd category.
func Pickup(in PickupInput) PickupOutcome {
	reason := strings.ToUpper(collapse(in.Reason))
	op := strings.ToUpper(collapse(in.Operation))
	state := strings.ToUpper(collapse(in.State))

	for _, r := range pickupRules {
		if r.Match(reason, op, state) {
			out := PickupOutcome{Category: r.Category}
			if r.Record != nil {
				r.Record(in, &out)
			}
			return out
		}
	}
	return PickupOutcome{Category: model.PickupOFD}
}

// recordReason keys the reasons breakdown on the raw collapsed reason
// text, falling back to the category placeholder.
func recordReason(placeholder string) func(PickupInput, *PickupOutcome) {
	return func(in PickupInput, out *PickupOutcome) {
		out.Reason = collapse(in.Reason)
		if out.Reason == "" {
			out.Reason = placeholder
		}
	}
}

func recordCancelReason(in PickupInput, out *PickupOutcome) {
	out.CancelReason = collapse(in.CancelReason)
	if out.CancelReason == "" {
		out.CancelReason = collapse(in.Reason)
	}
	if out.CancelReason == "" {
		out.CancelReason = placeholderCancel
	}
}

func containsAnyPhrase(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
