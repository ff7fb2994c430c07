package model

// Field is one header→value pair from a spreadsheet row.
type Field struct {
	Name  string
	Value string
}

// RawRecord is a single spreadsheet row as an ordered sequence of fields.
// Values arrive as strings regardless of the source cell type; numeric
// parsing happens downstream with a zero default.
type RawRecord []Field

// Get returns the value of the first field whose name matches exactly,
// and whether it was present.
func (r RawRecord) Get(name string) (string, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Empty reports whether no field in the record carries a value.
func (r RawRecord) Empty() bool {
	for _, f := range r {
		if f.Value != "" {
			return false
		}
	}
	return true
}

// Domain identifies which classification rule set and summary shape applies.
type Domain string

const (
	DomainDelivery Domain = "delivery"
	DomainPickup   Domain = "pickup"
)

// Layout identifies whether rows are pre-aggregated daily totals or
// per-shipment items needing classification.
type Layout string

const (
	LayoutSummaryRows     Layout = "summary_rows"
	LayoutPerShipmentRows Layout = "per_shipment_rows"
)

// DomainHint is the caller-supplied routing hint for a batch. Auto defers
// to schema detection.
type DomainHint string

const (
	HintDelivery DomainHint = "delivery"
	HintPickup   DomainHint = "pickup"
	HintAuto     DomainHint = "auto"
)
