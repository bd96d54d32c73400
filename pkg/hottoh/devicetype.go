// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package hottoh

// Device type bit layout (data page 0, field 4)
const (
	bitRoom1  = 0
	bitWater  = 1
	fanShift  = 2
	fanMask   = 0b11
	bitPump   = 4
	bitDHW    = 5
	bitBoiler = 6
	bitRoom3  = 7
	bitRoom2  = 8
)

// DeviceType describes the installed equipment, decoded from the stove-type bitmask
type DeviceType struct {
	Raw                     uint16 `json:"raw"`
	PumpEnabled             bool   `json:"pump_enabled"`
	BoilerEnabled           bool   `json:"boiler_enabled"`
	DomesticHotWaterEnabled bool   `json:"domestic_hot_water_enabled"`
	FanNumber               uint16 `json:"fan_number"`
	TempRoom1Enabled        bool   `json:"temp_room1_enabled"`
	TempRoom2Enabled        bool   `json:"temp_room2_enabled"`
	TempRoom3Enabled        bool   `json:"temp_room3_enabled"`
	TempWaterEnabled        bool   `json:"temp_water_enabled"`
}

// DecodeDeviceType splits the stove-type bitmask into its facets
func DecodeDeviceType(raw uint16) DeviceType {
	bit := func(n uint) bool { return raw&(1<<n) != 0 }
	return DeviceType{
		Raw:                     raw,
		PumpEnabled:             bit(bitPump),
		BoilerEnabled:           bit(bitBoiler),
		DomesticHotWaterEnabled: bit(bitDHW),
		FanNumber:               (raw >> fanShift) & fanMask,
		TempRoom1Enabled:        bit(bitRoom1),
		TempRoom2Enabled:        bit(bitRoom2),
		TempRoom3Enabled:        bit(bitRoom3),
		TempWaterEnabled:        bit(bitWater),
	}
}
