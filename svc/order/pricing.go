package order

// Pricing holds the computed charge breakdown for a set of line items.
// All amounts are in minor currency units.
type Pricing struct {
	Subtotal int64
	Tax      int64
	Shipping int64
	Total    int64
}

// Calculator prices an order. It is injectable because tax and shipping
// rules vary by deployment; the flat-rate default mirrors the legacy
// behavior.
type Calculator interface {
	Price(items []LineItem) Pricing
}

// FlatRateCalculator applies a percentage tax on the item subtotal and a
// flat shipping fee.
type FlatRateCalculator struct {
	TaxRatePercent int64 // e.g. 10 for 10%
	ShippingFee    int64 // minor units
}

// NewFlatRateCalculator returns the legacy default: 10% tax, 10.00 flat
// shipping.
func NewFlatRateCalculator() FlatRateCalculator {
	return FlatRateCalculator{TaxRatePercent: 10, ShippingFee: 1000}
}

func (c FlatRateCalculator) Price(items []LineItem) Pricing {
	var subtotal int64
	for _, item := range items {
		subtotal += item.UnitPrice * item.Quantity
	}
	tax := subtotal * c.TaxRatePercent / 100
	return Pricing{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: c.ShippingFee,
		Total:    subtotal + tax + c.ShippingFee,
	}
}
