// Package classify assigns outcome categories to raw courier rows. The
// delivery and pickup domains carry independent rule sets; both are
// deterministic and order-sensitive.
package classify

import (
	"strings"

	"github.com/lastmile-ops/depot-cli/internal/model"
)

type deliveryStatusRule struct {
	Token    string
	Category model.DeliveryCategory
}

// deliveryStatusRules maps known status tokens to categories. Iteration
// order is load-bearing for the substring fallback: several tokens are
// substrings of the same free text and the first listed wins. Specific
// tokens precede the generic tokens they contain (UNDELIVERED before
// DELIVERED, RTO REQUESTED before RTO), and failure tokens precede
// delivered so ambiguous free text never counts as a success.
var deliveryStatusRules = []deliveryStatusRule{
	{"UNDELIVERED", model.CategoryFailed},
	{"DELIVERY FAILED", model.CategoryFailed},
	{"REJECTED", model.CategoryFailed},
	{"FAILED", model.CategoryFailed},
	{"OUT FOR DELIVERY", model.CategoryOFD},
	{"HEADING TO CUSTOMER", model.CategoryOFD},
	{"OFD", model.CategoryOFD},
	{"RETURNED TO ORIGIN", model.CategoryRTO},
	{"RETURN TO ORIGIN", model.CategoryRTO},
	{"RTO REQUESTED", model.CategoryRTO},
	{"RTO", model.CategoryRTO},
	{"DELIVERED", model.CategoryDelivered},
	{"COMPLETED", model.CategoryDelivered},
}

// DeliveryStatus classifies one shipment's raw status text. Exact token
// match is tried across the whole table first, then substring containment
// in table order. Unmatched statuses return ok=false and are counted
// nowhere.
func DeliveryStatus(raw string) (model.DeliveryCategory, bool) {
	text := strings.ToUpper(strings.TrimSpace(raw))
	if text == "" {
		return "", false
	}
	for _, r := range deliveryStatusRules {
		if text == r.Token {
			return r.Category, true
		}
	}
	for _, r := range deliveryStatusRules {
		if strings.Contains(text, r.Token) {
			return r.Category, true
		}
	}
	return "", false
}
