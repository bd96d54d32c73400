// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package hottoh

import (
	"fmt"
	"strconv"
	"time"
)

// Payload is the decoded record carried by a response. The concrete type is
// one of *Info, *Page0, *Page1, *Page2 or *Ack.
type Payload interface {
	Command() Command
}

// Info is the device information record (INF)
type Info struct {
	Hostname  string    `json:"hostname"`
	Version   string    `json:"version"`
	Signal    string    `json:"signal"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Command implements Payload
func (*Info) Command() Command { return CommandInfo }

// Page0 is the main stove data page (DAT, 36 fields)
type Page0 struct {
	Page            uint16       `json:"page"`
	Manufacturer    Manufacturer `json:"manufacturer"`
	BitmapVisible   bool         `json:"bitmap_visible"`
	Valid           bool         `json:"valid"`
	StoveType       DeviceType   `json:"stove_type"`
	StoveState      StoveState   `json:"stove_state"`
	StoveOn         bool         `json:"stove_on"`
	EcoMode         bool         `json:"eco_mode"`
	TimerOn         uint16       `json:"timer_on"`
	AmbientT1       Temperature  `json:"ambient_t1"`
	AmbientT1Set    Temperature  `json:"ambient_t1_set"`
	AmbientT1SetMin Temperature  `json:"ambient_t1_set_min"`
	AmbientT1SetMax Temperature  `json:"ambient_t1_set_max"`
	AmbientT2       Temperature  `json:"ambient_t2"`
	AmbientT2Set    Temperature  `json:"ambient_t2_set"`
	AmbientT2SetMin Temperature  `json:"ambient_t2_set_min"`
	AmbientT2SetMax Temperature  `json:"ambient_t2_set_max"`
	Water           Temperature  `json:"water"`
	WaterSet        Temperature  `json:"water_set"`
	WaterSetMin     Temperature  `json:"water_set_min"`
	WaterSetMax     Temperature  `json:"water_set_max"`
	SmokeT          Temperature  `json:"smoke_t"`
	PowerLevel      uint16       `json:"power_level"`
	PowerSet        uint16       `json:"power_set"`
	PowerMin        uint16       `json:"power_min"`
	PowerMax        uint16       `json:"power_max"`
	FanSmoke        uint16       `json:"fan_smoke"`
	Fan1            uint16       `json:"fan_1"`
	Fan1Set         uint16       `json:"fan_1_set"`
	Fan1SetMax      uint16       `json:"fan_1_set_max"`
	Fan2            uint16       `json:"fan_2"`
	Fan2Set         uint16       `json:"fan_2_set"`
	Fan2SetMax      uint16       `json:"fan_2_set_max"`
	Fan3            uint16       `json:"fan_3"`
	Fan3Set         uint16       `json:"fan_3_set"`
	Fan3SetMax      uint16       `json:"fan_3_set_max"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// Command implements Payload
func (*Page0) Command() Command { return CommandPage0 }

// Page1 holds the additional temperature probes (DAT, 11 fields)
type Page1 struct {
	Page            int16       `json:"page"`
	Temperature1    Temperature `json:"temperature_1"`
	Temperature1Min Temperature `json:"temperature_1_min"`
	Temperature1Max Temperature `json:"temperature_1_max"`
	Temperature2    Temperature `json:"temperature_2"`
	Temperature2Min Temperature `json:"temperature_2_min"`
	Temperature2Max Temperature `json:"temperature_2_max"`
	Temperature3    Temperature `json:"temperature_3"`
	Temperature3Min Temperature `json:"temperature_3_min"`
	Temperature3Max Temperature `json:"temperature_3_max"`
	State           int16       `json:"state"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// Command implements Payload
func (*Page1) Command() Command { return CommandPage1 }

// Page2 holds hydraulic data: pumps, valves, puffer, boiler and DHW (DAT, 22 fields)
type Page2 struct {
	Page            int16       `json:"page"`
	FlowSwitch      uint16      `json:"flow_switch"`
	GenericPump     uint16      `json:"generic_pump"`
	Airex1          uint16      `json:"airex_1"`
	Airex2          uint16      `json:"airex_2"`
	Airex3          uint16      `json:"airex_3"`
	Puffer          Temperature `json:"puffer"`
	PufferSet       Temperature `json:"puffer_set"`
	PufferSetMin    Temperature `json:"puffer_set_min"`
	PufferSetMax    Temperature `json:"puffer_set_max"`
	Boiler          Temperature `json:"boiler"`
	BoilerSet       Temperature `json:"boiler_set"`
	BoilerSetMin    Temperature `json:"boiler_set_min"`
	BoilerSetMax    Temperature `json:"boiler_set_max"`
	DHW             Temperature `json:"dhw"`
	DHWSet          Temperature `json:"dhw_set"`
	DHWSetMin       Temperature `json:"dhw_set_min"`
	DHWSetMax       Temperature `json:"dhw_set_max"`
	RoomTemp3       Temperature `json:"room_temp_3"`
	RoomTemp3Set    Temperature `json:"room_temp_3_set"`
	RoomTemp3SetMin Temperature `json:"room_temp_3_set_min"`
	RoomTemp3SetMax Temperature `json:"room_temp_3_set_max"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// Command implements Payload
func (*Page2) Command() Command { return CommandPage2 }

// Ack is the single-field acknowledgement of a DAT write
type Ack struct {
	Value string `json:"value"`
}

// Command implements Payload
func (*Ack) Command() Command { return CommandAck }

// DecodePayload decodes the parameter list of a (re-specialized) command into
// its record. now is stamped into the record's UpdatedAt.
func DecodePayload(cmd Command, params []string, now time.Time) (Payload, error) {
	switch cmd {
	case CommandInfo:
		return decodeInfo(params, now)
	case CommandPage0:
		return decodePage0(params, now)
	case CommandPage1:
		return decodePage1(params, now)
	case CommandPage2:
		return decodePage2(params, now)
	case CommandAck:
		if err := checkArity(cmd, params, ackFields); err != nil {
			return nil, err
		}
		return &Ack{Value: params[0]}, nil
	}
	return nil, fmt.Errorf("%w: %s with %d fields", ErrNotImplemented, cmd, len(params))
}

func checkArity(cmd Command, params []string, want int) error {
	if len(params) != want {
		return &StructureError{Command: cmd, Got: len(params), Want: want}
	}
	return nil
}

func decodeInfo(params []string, now time.Time) (*Info, error) {
	if err := checkArity(CommandInfo, params, infoFields); err != nil {
		return nil, err
	}
	return &Info{
		Hostname:  params[0],
		Version:   params[1],
		Signal:    params[2],
		UpdatedAt: now,
	}, nil
}

func decodePage0(params []string, now time.Time) (*Page0, error) {
	if err := checkArity(CommandPage0, params, page0Fields); err != nil {
		return nil, err
	}
	r := fieldReader{cmd: CommandPage0, fields: params}
	p := &Page0{
		Page:            r.uint16(0, "page"),
		Manufacturer:    Manufacturer(r.uint16(1, "manufacturer")),
		BitmapVisible:   r.bool(2, "bitmap_visible"),
		Valid:           r.bool(3, "valid"),
		StoveType:       DecodeDeviceType(r.uint16(4, "stove_type")),
		StoveState:      r.stoveState(5, "stove_state"),
		StoveOn:         r.bool(6, "stove_on"),
		EcoMode:         r.bool(7, "eco_mode"),
		TimerOn:         r.uint16(8, "timer_on"),
		AmbientT1:       r.temperature(9, "ambient_t1"),
		AmbientT1Set:    r.temperature(10, "ambient_t1_set"),
		AmbientT1SetMin: r.temperature(11, "ambient_t1_set_min"),
		AmbientT1SetMax: r.temperature(12, "ambient_t1_set_max"),
		AmbientT2:       r.temperature(13, "ambient_t2"),
		AmbientT2Set:    r.temperature(14, "ambient_t2_set"),
		AmbientT2SetMin: r.temperature(15, "ambient_t2_set_min"),
		AmbientT2SetMax: r.temperature(16, "ambient_t2_set_max"),
		Water:           r.temperature(17, "water"),
		WaterSet:        r.temperature(18, "water_set"),
		WaterSetMin:     r.temperature(19, "water_set_min"),
		WaterSetMax:     r.temperature(20, "water_set_max"),
		SmokeT:          r.temperature(21, "smoke_t"),
		PowerLevel:      r.uint16(22, "power_level"),
		PowerSet:        r.uint16(23, "power_set"),
		PowerMin:        r.uint16(24, "power_min"),
		PowerMax:        r.uint16(25, "power_max"),
		FanSmoke:        r.uint16(26, "fan_smoke"),
		Fan1:            r.uint16(27, "fan_1"),
		Fan1Set:         r.uint16(28, "fan_1_set"),
		Fan1SetMax:      r.uint16(29, "fan_1_set_max"),
		Fan2:            r.uint16(30, "fan_2"),
		Fan2Set:         r.uint16(31, "fan_2_set"),
		Fan2SetMax:      r.uint16(32, "fan_2_set_max"),
		Fan3:            r.uint16(33, "fan_3"),
		Fan3Set:         r.uint16(34, "fan_3_set"),
		Fan3SetMax:      r.uint16(35, "fan_3_set_max"),
		UpdatedAt:       now,
	}
	if r.err != nil {
		return nil, r.err
	}
	return p, nil
}

func decodePage1(params []string, now time.Time) (*Page1, error) {
	if err := checkArity(CommandPage1, params, page1Fields); err != nil {
		return nil, err
	}
	r := fieldReader{cmd: CommandPage1, fields: params}
	p := &Page1{
		Page:            r.int16(0, "page"),
		Temperature1:    r.temperature(1, "temperature_1"),
		Temperature1Min: r.temperature(2, "temperature_1_min"),
		Temperature1Max: r.temperature(3, "temperature_1_max"),
		Temperature2:    r.temperature(4, "temperature_2"),
		Temperature2Min: r.temperature(5, "temperature_2_min"),
		Temperature2Max: r.temperature(6, "temperature_2_max"),
		Temperature3:    r.temperature(7, "temperature_3"),
		Temperature3Min: r.temperature(8, "temperature_3_min"),
		Temperature3Max: r.temperature(9, "temperature_3_max"),
		State:           r.int16(10, "state"),
		UpdatedAt:       now,
	}
	if r.err != nil {
		return nil, r.err
	}
	return p, nil
}

func decodePage2(params []string, now time.Time) (*Page2, error) {
	if err := checkArity(CommandPage2, params, page2Fields); err != nil {
		return nil, err
	}
	r := fieldReader{cmd: CommandPage2, fields: params}
	p := &Page2{
		Page:            r.int16(0, "page"),
		FlowSwitch:      r.uint16(1, "flow_switch"),
		GenericPump:     r.uint16(2, "generic_pump"),
		Airex1:          r.uint16(3, "airex_1"),
		Airex2:          r.uint16(4, "airex_2"),
		Airex3:          r.uint16(5, "airex_3"),
		Puffer:          r.temperature(6, "puffer"),
		PufferSet:       r.temperature(7, "puffer_set"),
		PufferSetMin:    r.temperature(8, "puffer_set_min"),
		PufferSetMax:    r.temperature(9, "puffer_set_max"),
		Boiler:          r.temperature(10, "boiler"),
		BoilerSet:       r.temperature(11, "boiler_set"),
		BoilerSetMin:    r.temperature(12, "boiler_set_min"),
		BoilerSetMax:    r.temperature(13, "boiler_set_max"),
		DHW:             r.temperature(14, "dhw"),
		DHWSet:          r.temperature(15, "dhw_set"),
		DHWSetMin:       r.temperature(16, "dhw_set_min"),
		DHWSetMax:       r.temperature(17, "dhw_set_max"),
		RoomTemp3:       r.temperature(18, "room_temp_3"),
		RoomTemp3Set:    r.temperature(19, "room_temp_3_set"),
		RoomTemp3SetMin: r.temperature(20, "room_temp_3_set_min"),
		RoomTemp3SetMax: r.temperature(21, "room_temp_3_set_max"),
		UpdatedAt:       now,
	}
	if r.err != nil {
		return nil, r.err
	}
	return p, nil
}

// fieldReader parses positional fields, keeping the first error
type fieldReader struct {
	cmd    Command
	fields []string
	err    error
}

func (r *fieldReader) fail(i int, name string) {
	if r.err == nil {
		r.err = &StructureError{Command: r.cmd, Field: name, Value: r.fields[i]}
	}
}

func (r *fieldReader) uint16(i int, name string) uint16 {
	v, err := strconv.ParseUint(r.fields[i], 10, 16)
	if err != nil {
		r.fail(i, name)
		return 0
	}
	return uint16(v)
}

func (r *fieldReader) int16(i int, name string) int16 {
	v, err := strconv.ParseInt(r.fields[i], 10, 16)
	if err != nil {
		r.fail(i, name)
		return 0
	}
	return int16(v)
}

func (r *fieldReader) temperature(i int, name string) Temperature {
	return Temperature(r.int16(i, name))
}

func (r *fieldReader) bool(i int, name string) bool {
	switch r.fields[i] {
	case "0":
		return false
	case "1":
		return true
	}
	r.fail(i, name)
	return false
}

func (r *fieldReader) stoveState(i int, name string) StoveState {
	s, err := ParseStoveState(r.fields[i])
	if err != nil {
		r.fail(i, name)
	}
	return s
}
