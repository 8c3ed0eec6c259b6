package schema

import (
	"net/url"
	"strconv"
	"strings"
)

// MarketplaceFilter narrows public marketplace listing; zero values are not sent
type MarketplaceFilter struct {
	Query            string   `json:"q,omitempty"`
	TotalValueMin    *float64 `json:"total_value_min,omitempty"`
	TotalValueMax    *float64 `json:"total_value_max,omitempty"`
	SellerCountry    string   `json:"seller_country,omitempty"`
	CurrencyType     string   `json:"currency_type,omitempty"`
	TermsOfDelivery  string   `json:"terms_of_delivery,omitempty"`
	TermsOfPayment   string   `json:"terms_of_payment,omitempty"`
	MeansOfTransport string   `json:"means_of_transport,omitempty"`
	Standard         string   `json:"standard,omitempty"`
	CountryOfOrigin  string   `json:"country_of_origin,omitempty"`
	PartialShipment  *bool    `json:"partial_shipment,omitempty"`
	HSCodes          []string `json:"hs_code,omitempty"`
}

// Values encodes filter as query parameters
func (f *MarketplaceFilter) Values() url.Values {
	values := url.Values{}
	if f == nil {
		return values
	}
	setString := func(key, value string) {
		if value = strings.TrimSpace(value); value != "" {
			values.Set(key, value)
		}
	}
	setString("q", f.Query)
	if f.TotalValueMin != nil {
		values.Set("total_value_min", strconv.FormatFloat(*f.TotalValueMin, 'f', -1, 64))
	}
	if f.TotalValueMax != nil {
		values.Set("total_value_max", strconv.FormatFloat(*f.TotalValueMax, 'f', -1, 64))
	}
	setString("seller_country", f.SellerCountry)
	setString("currency_type", f.CurrencyType)
	setString("terms_of_delivery", f.TermsOfDelivery)
	setString("terms_of_payment", f.TermsOfPayment)
	setString("means_of_transport", f.MeansOfTransport)
	setString("standard", f.Standard)
	setString("country_of_origin", f.CountryOfOrigin)
	if f.PartialShipment != nil {
		values.Set("partial_shipment", strconv.FormatBool(*f.PartialShipment))
	}
	var codes []string
	for _, code := range f.HSCodes {
		if code = strings.TrimSpace(code); code != "" {
			codes = append(codes, code)
		}
	}
	if len(codes) > 0 {
		values.Set("hs_code", strings.Join(codes, ","))
	}
	return values
}

// SearchTerms splits free text query into terms, accepting latin and arabic commas
func SearchTerms(query string) []string {
	raw := strings.TrimSpace(query)
	if raw == "" {
		return nil
	}
	var terms []string
	for _, part := range strings.Split(strings.ReplaceAll(raw, "،", ","), ",") {
		if part = strings.TrimSpace(part); part != "" {
			terms = append(terms, part)
		}
	}
	if len(terms) == 0 {
		return []string{raw}
	}
	return terms
}
