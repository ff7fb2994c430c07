package model

// DeliveryCategory is the outcome bucket for one delivery shipment.
type DeliveryCategory string

const (
	CategoryDelivered DeliveryCategory = "delivered"
	CategoryFailed    DeliveryCategory = "failed"
	CategoryOFD       DeliveryCategory = "ofd"
	CategoryRTO       DeliveryCategory = "rto"
)

// PickupCategory is the outcome bucket for one pickup row.
type PickupCategory string

const (
	PickupPicked    PickupCategory = "picked"
	PickupOFD       PickupCategory = "ofd"
	PickupFailed    PickupCategory = "failed"
	PickupCancelled PickupCategory = "cancelled"
	PickupRVP       PickupCategory = "rvp"
	PickupWeb       PickupCategory = "web"
)

// Badge is an achievement tag derived from a finished delivery summary.
type Badge string

const (
	BadgeSniper   Badge = "sniper"
	BadgeTurbo    Badge = "turbo"
	BadgeGuardian Badge = "guardian"
	BadgeFire     Badge = "fire"
	BadgeBeast    Badge = "beast"
)

// TrackingEntry records one shipment's tracking id together with the
// category it classified into.
type TrackingEntry struct {
	TrackingID string `json:"tracking_id"`
	Category   string `json:"category"`
}

// DeliverySummary is the per-agent delivery aggregate. Total is always the
// sum of the four category counts and is recomputed on every increment,
// never stored independently.
type DeliverySummary struct {
	Agent            string          `json:"agent"`
	Delivered        int             `json:"delivered"`
	Failed           int             `json:"failed"`
	OFD              int             `json:"ofd"`
	RTO              int             `json:"rto"`
	Total            int             `json:"total"`
	SuccessRate      float64         `json:"success_rate"`
	PendingTrackings []string        `json:"pending_trackings,omitempty"`
	AllTrackings     []TrackingEntry `json:"all_trackings,omitempty"`
	Badges           []Badge         `json:"badges,omitempty"`
}

// Recount refreshes Total from the category counters.
func (s *DeliverySummary) Recount() {
	s.Total = s.Delivered + s.Failed + s.OFD + s.RTO
}

// PickupSummary is the per-agent pickup aggregate. Total counts every
// classified row; the success-rate denominator excludes cancelled.
type PickupSummary struct {
	Agent       string          `json:"agent"`
	Picked      int             `json:"picked"`
	OFD         int             `json:"ofd"`
	Failed      int             `json:"failed"`
	Cancelled   int             `json:"cancelled"`
	RVP         int             `json:"rvp"`
	Web         int             `json:"web"`
	Total       int             `json:"total"`
	SuccessRate float64         `json:"success_rate"`
	Trackings   []TrackingEntry `json:"trackings,omitempty"`
}

// Recount refreshes Total from the category counters.
func (s *PickupSummary) Recount() {
	s.Total = s.Picked + s.OFD + s.Failed + s.Cancelled + s.RVP + s.Web
}

// DeliveryGrandTotal is the depot-wide delivery aggregate. SuccessRate is
// recomputed from the summed counts, never averaged from per-agent rates.
type DeliveryGrandTotal struct {
	Delivered   int     `json:"delivered"`
	Failed      int     `json:"failed"`
	OFD         int     `json:"ofd"`
	RTO         int     `json:"rto"`
	Total       int     `json:"total"`
	SuccessRate float64 `json:"success_rate"`
}

// PickupGrandTotal is the depot-wide pickup aggregate.
type PickupGrandTotal struct {
	Picked      int     `json:"picked"`
	OFD         int     `json:"ofd"`
	Failed      int     `json:"failed"`
	Cancelled   int     `json:"cancelled"`
	RVP         int     `json:"rvp"`
	Web         int     `json:"web"`
	Total       int     `json:"total"`
	SuccessRate float64 `json:"success_rate"`
}

// DeliveryResult is one finished delivery aggregation pass: per-agent
// summaries in presentation order plus the grand total.
type DeliveryResult struct {
	Agents     []DeliverySummary  `json:"agents"`
	GrandTotal DeliveryGrandTotal `json:"grand_total"`
}

// PickupResult is one finished pickup aggregation pass. The reason
// breakdowns are depot-wide frequency maps keyed on whitespace-collapsed
// reason text.
type PickupResult struct {
	Agents                []PickupSummary  `json:"agents"`
	GrandTotal            PickupGrandTotal `json:"grand_total"`
	ReasonsBreakdown      map[string]int   `json:"reasons_breakdown,omitempty"`
	CancelReasonBreakdown map[string]int   `json:"cancel_reason_breakdown,omitempty"`
}
