// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package hottoh

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/fxamacker/cbor/v2"
)

// Temperature is a raw thermal measurement in tenths of a degree Celsius
type Temperature int16

// TemperatureFromCelsius converts degrees to tenths, truncating toward zero
func TemperatureFromCelsius(c float64) (Temperature, error) {
	if math.IsNaN(c) || math.IsInf(c, 0) {
		return 0, fmt.Errorf("temperature cannot be NaN or infinite")
	}
	tenths := math.Trunc(c * 10)
	if tenths < math.MinInt16 || tenths > math.MaxInt16 {
		return 0, fmt.Errorf("temperature %.1f out of range", c)
	}
	return Temperature(tenths), nil
}

// Celsius returns the measurement in degrees
func (t Temperature) Celsius() float64 {
	return float64(t) / 10
}

func (t Temperature) String() string {
	return strconv.FormatFloat(t.Celsius(), 'f', 1, 64) + "°C"
}

// MarshalJSON renders the value in degrees
func (t Temperature) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Celsius())
}

// MarshalCBOR renders the value in degrees
func (t Temperature) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(t.Celsius())
}

// UnmarshalJSON parses a value in degrees, rounding to the nearest tenth
func (t *Temperature) UnmarshalJSON(data []byte) error {
	var c float64
	if err := json.Unmarshal(data, &c); err != nil {
		return err
	}
	tenths := math.Round(c * 10)
	if tenths < math.MinInt16 || tenths > math.MaxInt16 {
		return fmt.Errorf("temperature %.1f out of range", c)
	}
	*t = Temperature(tenths)
	return nil
}
