package schema

import "time"

type (
	// HSCode represents a harmonized system tariff code
	HSCode struct {
		ID              int        `json:"id"`
		Code            string     `json:"code"`
		GoodsNameFa     string     `json:"goods_name_fa"`
		GoodsNameEn     string     `json:"goods_name_en"`
		Profit          string     `json:"profit,omitempty"`
		CustomsDutyRate *int       `json:"customs_duty_rate"`
		Priority        *int       `json:"priority"`
		SUQ             string     `json:"SUQ,omitempty"`
		UpdatedDate     *time.Time `json:"updated_date,omitempty"`
		Season          any        `json:"season,omitempty"`
	}

	// HSCodeOption is a compact search result used to pick a code for an order good
	HSCodeOption struct {
		ID          int     `json:"id"`
		Code        string  `json:"code"`
		GoodsNameFa *string `json:"goods_name_fa"`
		GoodsNameEn *string `json:"goods_name_en"`
	}
)

// Option returns compact representation
func (c *HSCode) Option() HSCodeOption {
	ret := HSCodeOption{ID: c.ID, Code: c.Code}
	if c.GoodsNameFa != "" {
		ret.GoodsNameFa = &c.GoodsNameFa
	}
	if c.GoodsNameEn != "" {
		ret.GoodsNameEn = &c.GoodsNameEn
	}
	return ret
}

// Label returns "code - name" using the english name when present
func (o *HSCodeOption) Label() string {
	switch {
	case o.GoodsNameEn != nil && *o.GoodsNameEn != "":
		return o.Code + " - " + *o.GoodsNameEn
	case o.GoodsNameFa != nil && *o.GoodsNameFa != "":
		return o.Code + " - " + *o.GoodsNameFa
	}
	return o.Code
}
