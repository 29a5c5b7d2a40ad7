package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// CarnetField accepts a carnet sent either as a JSON string or a JSON
// number; some clients post it straight from a numeric input.
type CarnetField string

func (cf *CarnetField) UnmarshalJSON(data []byte) error {
	if cf == nil {
		return fmt.Errorf("CarnetField: nil receiver")
	}
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		*cf = CarnetField(strings.TrimSpace(s))
		return nil
	}

	// json.Number keeps "0012" style digits intact for integers; floats and
	// exponents fall through to validation and get rejected there.
	var num json.Number
	if err := json.Unmarshal(trimmed, &num); err == nil {
		*cf = CarnetField(num.String())
		return nil
	}

	return fmt.Errorf("carnet: expected string or number, got %s", string(data))
}

func (cf CarnetField) String() string {
	return string(cf)
}
