package schema

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// Decimal is a numeric amount that the API serialises as a string ("12.50") but accepts as a number as well
type Decimal float64

// MarshalJSON encodes decimal as a quoted string
func (d Decimal) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(d.String())), nil
}

// UnmarshalJSON decodes a quoted or bare number, null leaves zero
func (d *Decimal) UnmarshalJSON(data []byte) error {
	text := strings.TrimSpace(string(data))
	if text == "null" || text == `""` {
		*d = 0
		return nil
	}
	text = strings.Trim(text, `"`)
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return errors.Wrapf(err, "invalid decimal %q", text)
	}
	*d = Decimal(value)
	return nil
}

func (d Decimal) String() string {
	return strconv.FormatFloat(float64(d), 'f', -1, 64)
}

// Float64 returns float value
func (d Decimal) Float64() float64 {
	return float64(d)
}
