package schema

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

// FieldError reports a client side validation failure for a single field
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewFieldError creates a field error
func NewFieldError(field, message string) *FieldError {
	return &FieldError{Field: field, Message: message}
}

// FirstErrorMessage extracts a display message from an API error body.
// It prefers a string "detail", then the first field's value when that value is a
// string or an array starting with a string; otherwise, or when the message is empty,
// fallback is returned.
func FirstErrorMessage(data []byte, fallback string) string {
	if len(data) == 0 {
		return fallback
	}
	iter := jsoniter.ParseBytes(jsoniter.ConfigCompatibleWithStandardLibrary, data)
	if iter.WhatIsNext() != jsoniter.ObjectValue {
		return fallback
	}
	var detail, first string
	hasDetail, seenFirst := false, false
	iter.ReadObjectCB(func(it *jsoniter.Iterator, field string) bool {
		isFirst := !seenFirst
		seenFirst = true
		switch it.WhatIsNext() {
		case jsoniter.StringValue:
			value := it.ReadString()
			if field == "detail" && !hasDetail {
				detail, hasDetail = value, true
			}
			if isFirst {
				first = value
			}
		case jsoniter.ArrayValue:
			if !isFirst {
				it.Skip()
				return true
			}
			index := 0
			it.ReadArrayCB(func(it *jsoniter.Iterator) bool {
				if index == 0 && it.WhatIsNext() == jsoniter.StringValue {
					first = it.ReadString()
				} else {
					it.Skip()
				}
				index++
				return true
			})
		default:
			it.Skip()
		}
		return true
	})
	if iter.Error != nil && !hasDetail && first == "" {
		return fallback
	}
	// an empty message is never displayed, fallback is used instead
	if hasDetail && detail != "" {
		return detail
	}
	if first != "" {
		return first
	}
	return fallback
}
