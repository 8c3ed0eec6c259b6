package schema

import (
	"time"

	"github.com/google/uuid"
)

type (
	// Good is a line item of a registered order as returned by the API
	Good struct {
		UUID        uuid.UUID `json:"uuid"`
		Description string    `json:"description"`
		HSCode      string    `json:"hs_code"`
		Quantity    Decimal   `json:"quantity"`
		Origin      string    `json:"origin"`
		UnitPrice   Decimal   `json:"unit_price"`
		Unit        string    `json:"unit"`
		NetWeight   Decimal   `json:"nw_kg"`
		GrossWeight Decimal   `json:"gw_kg"`
		LineTotal   Decimal   `json:"line_total"`
	}

	// Order represents a registered import/export declaration
	Order struct {
		ID               int        `json:"id,omitempty"`
		UUID             uuid.UUID  `json:"uuid"`
		OrderNumber      string     `json:"order_number"`
		User             string     `json:"user"`
		Verified         bool       `json:"verified,omitempty"`
		CreatedAt        *time.Time `json:"created_at,omitempty"`
		TotalValue       Decimal    `json:"total_value"`
		FreightPrice     Decimal    `json:"freight_price"`
		SubTotal         Decimal    `json:"sub_total"`
		CurrencyType     string     `json:"currency_type"`
		SellerCountry    string     `json:"seller_country"`
		Date             string     `json:"date"`
		ExpireDate       string     `json:"expire_date"`
		TermsOfDelivery  string     `json:"terms_of_delivery"`
		TermsOfPayment   string     `json:"terms_of_payment"`
		PartialShipment  bool       `json:"partial_shipment"`
		MeansOfTransport string     `json:"means_of_transport"`
		CountryOfOrigin  string     `json:"country_of_origin"`
		Standard         string     `json:"standard"`
		TotalGrossWeight Decimal    `json:"total_gw"`
		TotalNetWeight   Decimal    `json:"total_nw"`
		TotalQuantity    Decimal    `json:"total_qty"`
		Goods            []Good     `json:"goods"`
	}

	// GoodInput is a line item submitted on order create/update
	GoodInput struct {
		Description string  `json:"description"`
		HSCodeID    int     `json:"hs_code_id"`
		Quantity    Decimal `json:"quantity"`
		Origin      string  `json:"origin"`
		UnitPrice   Decimal `json:"unit_price"`
		Unit        string  `json:"unit,omitempty"`
		NetWeight   Decimal `json:"nw_kg"`
		GrossWeight Decimal `json:"gw_kg"`
	}

	// OrderInput is the create/update payload of a registered order; totals are computed server side
	OrderInput struct {
		OrderNumber      string      `json:"order_number"`
		FreightPrice     Decimal     `json:"freight_price"`
		CurrencyType     string      `json:"currency_type"`
		SellerCountry    string      `json:"seller_country"`
		Date             string      `json:"date"`
		ExpireDate       string      `json:"expire_date"`
		TermsOfDelivery  string      `json:"terms_of_delivery"`
		TermsOfPayment   string      `json:"terms_of_payment"`
		PartialShipment  bool        `json:"partial_shipment"`
		MeansOfTransport string      `json:"means_of_transport"`
		CountryOfOrigin  string      `json:"country_of_origin"`
		Standard         string      `json:"standard"`
		Goods            []GoodInput `json:"goods"`
	}

	// VerifyRequest toggles order verification, admin only
	VerifyRequest struct {
		Verified bool `json:"verified"`
	}
)

// Validate checks required order fields and goods
func (o *OrderInput) Validate() error {
	required := []struct{ field, value string }{
		{"order_number", o.OrderNumber},
		{"terms_of_delivery", o.TermsOfDelivery},
		{"terms_of_payment", o.TermsOfPayment},
		{"means_of_transport", o.MeansOfTransport},
		{"country_of_origin", o.CountryOfOrigin},
		{"standard", o.Standard},
	}
	for _, item := range required {
		if item.value == "" {
			return NewFieldError(item.field, "this field is required")
		}
	}
	if o.FreightPrice < 0 {
		return NewFieldError("freight_price", "must not be negative")
	}
	if len(o.Goods) == 0 {
		return NewFieldError("goods", "at least one good is required")
	}
	for i := range o.Goods {
		if err := o.Goods[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks a single good
func (g *GoodInput) Validate() error {
	switch {
	case g.Description == "":
		return NewFieldError("goods.description", "this field is required")
	case g.HSCodeID <= 0:
		return NewFieldError("goods.hs_code_id", "hs code is required")
	case g.Quantity <= 0:
		return NewFieldError("goods.quantity", "must be greater than zero")
	case g.UnitPrice < 0:
		return NewFieldError("goods.unit_price", "must not be negative")
	case g.Origin == "":
		return NewFieldError("goods.origin", "this field is required")
	}
	return nil
}

// Recalculate recomputes line totals and order totals from goods
func (o *Order) Recalculate() {
	var value, qty, nw, gw float64
	for i := range o.Goods {
		good := &o.Goods[i]
		good.LineTotal = Decimal(good.Quantity.Float64() * good.UnitPrice.Float64())
		value += good.LineTotal.Float64()
		qty += good.Quantity.Float64()
		nw += good.NetWeight.Float64()
		gw += good.GrossWeight.Float64()
	}
	o.TotalValue = Decimal(value)
	o.SubTotal = Decimal(value + o.FreightPrice.Float64())
	o.TotalQuantity = Decimal(qty)
	o.TotalNetWeight = Decimal(nw)
	o.TotalGrossWeight = Decimal(gw)
}
