// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package hottoh

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Command is the protocol verb of a frame.
//
// Only INF and DAT travel on the wire. The page and acknowledgement variants
// are resolved from a DAT response by its parameter count.
type Command uint8

// Command values
const (
	CommandInfo Command = iota + 1
	CommandData
	CommandPage0
	CommandPage1
	CommandPage2
	CommandAck
)

// Code returns the 3-letter wire code of the command
func (c Command) Code() string {
	switch c {
	case CommandInfo:
		return "INF"
	case CommandData, CommandPage0, CommandPage1, CommandPage2, CommandAck:
		return "DAT"
	}
	return "???"
}

func (c Command) String() string {
	switch c {
	case CommandInfo:
		return "INF"
	case CommandData:
		return "DAT"
	case CommandPage0:
		return "DAT0"
	case CommandPage1:
		return "DAT1"
	case CommandPage2:
		return "DAT2"
	case CommandAck:
		return "DATAck"
	}
	return fmt.Sprintf("Command(%d)", uint8(c))
}

// ParseCommand resolves a 3-letter wire code
func ParseCommand(code string) (Command, error) {
	switch code {
	case "INF":
		return CommandInfo, nil
	case "DAT":
		return CommandData, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCommand, code)
}

// CommandType is the verb modifier of a frame
type CommandType uint8

// Command type values
const (
	CommandRead CommandType = iota + 1
	CommandWrite
	CommandExecute
)

// Code returns the 1-letter wire code
func (t CommandType) Code() string {
	switch t {
	case CommandRead:
		return "R"
	case CommandWrite:
		return "W"
	case CommandExecute:
		return "E"
	}
	return "?"
}

func (t CommandType) String() string {
	switch t {
	case CommandRead:
		return "Read"
	case CommandWrite:
		return "Write"
	case CommandExecute:
		return "Execute"
	}
	return fmt.Sprintf("CommandType(%d)", uint8(t))
}

// ParseCommandType resolves a 1-letter wire code
func ParseCommandType(code string) (CommandType, error) {
	switch code {
	case "R":
		return CommandRead, nil
	case "W":
		return CommandWrite, nil
	case "E":
		return CommandExecute, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCommandType, code)
}

// StoveState is the operating state reported in data page 0
type StoveState int

// Stove state values
const (
	StateOff            StoveState = 0
	StateStarting1      StoveState = 1
	StateStarting2      StoveState = 2
	StateStarting3      StoveState = 3
	StateStarting4      StoveState = 4
	StateStarting5      StoveState = 5
	StateStarting6      StoveState = 6
	StateStarting7      StoveState = 7
	StatePower          StoveState = 8
	StateStopping1      StoveState = 9
	StateStopping2      StoveState = 10
	StateEcoStop1       StoveState = 11
	StateEcoStop2       StoveState = 12
	StateEcoStop3       StoveState = 13
	StateLowPellet      StoveState = 14
	StateEndPellet      StoveState = 15
	StateBlackOut       StoveState = 16
	StateAntiFreeze     StoveState = 17
	StateIgnitionFailed StoveState = 60
	StateNoPellet       StoveState = 61
	StateCoverOpen      StoveState = 69
)

var stoveStateNames = map[StoveState]string{
	StateOff:            "Off",
	StateStarting1:      "Starting1",
	StateStarting2:      "Starting2",
	StateStarting3:      "Starting3",
	StateStarting4:      "Starting4",
	StateStarting5:      "Starting5",
	StateStarting6:      "Starting6",
	StateStarting7:      "Starting7",
	StatePower:          "Power",
	StateStopping1:      "Stopping1",
	StateStopping2:      "Stopping2",
	StateEcoStop1:       "EcoStop1",
	StateEcoStop2:       "EcoStop2",
	StateEcoStop3:       "EcoStop3",
	StateLowPellet:      "LowPellet",
	StateEndPellet:      "EndPellet",
	StateBlackOut:       "BlackOut",
	StateAntiFreeze:     "AntiFreeze",
	StateIgnitionFailed: "IgnitionFailed",
	StateNoPellet:       "NoPellet",
	StateCoverOpen:      "CoverOpen",
}

// ParseStoveState parses a decimal state code. Unknown codes are rejected.
func ParseStoveState(s string) (StoveState, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid stove state %q: %w", s, err)
	}
	state := StoveState(n)
	if _, ok := stoveStateNames[state]; !ok {
		return 0, fmt.Errorf("unknown stove state code %d", n)
	}
	return state, nil
}

func (s StoveState) String() string {
	if name, ok := stoveStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("StoveState(%d)", int(s))
}

// MarshalText renders the state by name
func (s StoveState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText accepts a state name or its decimal code
func (s *StoveState) UnmarshalText(text []byte) error {
	for state, name := range stoveStateNames {
		if name == string(text) {
			*s = state
			return nil
		}
	}
	state, err := ParseStoveState(string(text))
	if err != nil {
		return err
	}
	*s = state
	return nil
}

// Manufacturer identifies the stove brand reported in data page 0
type Manufacturer uint16

// Known manufacturer codes
const (
	ManufacturerCMG       Manufacturer = 9
	Manufacturer65        Manufacturer = 65
	Manufacturer76        Manufacturer = 76
	ManufacturerEdilkamin Manufacturer = 85
	Manufacturer100       Manufacturer = 100
)

var manufacturerNames = map[Manufacturer]string{
	ManufacturerCMG:       "Cmg",
	Manufacturer65:        "Manufacturer65",
	Manufacturer76:        "Manufacturer76",
	ManufacturerEdilkamin: "Edilkamin",
	Manufacturer100:       "Manufacturer100",
}

// Name returns the manufacturer name and whether the code is known
func (m Manufacturer) Name() (string, bool) {
	name, ok := manufacturerNames[m]
	return name, ok
}

func (m Manufacturer) String() string {
	if name, ok := m.Name(); ok {
		return name
	}
	return strconv.Itoa(int(m))
}

// MarshalJSON renders known manufacturers by name and unknown ones as their raw code
func (m Manufacturer) MarshalJSON() ([]byte, error) {
	if name, ok := m.Name(); ok {
		return json.Marshal(name)
	}
	return json.Marshal(uint16(m))
}

// UnmarshalJSON accepts a manufacturer name or its raw code
func (m *Manufacturer) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		for code, n := range manufacturerNames {
			if n == name {
				*m = code
				return nil
			}
		}
		return fmt.Errorf("unknown manufacturer %q", name)
	}
	var code uint16
	if err := json.Unmarshal(data, &code); err != nil {
		return err
	}
	*m = Manufacturer(code)
	return nil
}

// ChronoMode is the schedule programming mode
type ChronoMode int

// Chrono mode values
const (
	ChronoOff ChronoMode = iota
	ChronoSleep
	ChronoOn1
	ChronoOn2
	ChronoOn3
	ChronoOn4
)

func (c ChronoMode) String() string {
	switch c {
	case ChronoOff:
		return "Off"
	case ChronoSleep:
		return "Sleep"
	case ChronoOn1:
		return "On1"
	case ChronoOn2:
		return "On2"
	case ChronoOn3:
		return "On3"
	case ChronoOn4:
		return "On4"
	}
	return fmt.Sprintf("ChronoMode(%d)", int(c))
}

// StoveCommand is the register written by a DAT/Write request. It is sent
// as the first parameter, followed by the value.
type StoveCommand int

// Writable registers
const (
	SetOnOff             StoveCommand = 0
	SetEcoMode           StoveCommand = 1
	SetPowerLevel        StoveCommand = 2
	SetAmbianceTemp1     StoveCommand = 3
	SetAmbianceTemp2     StoveCommand = 4
	SetFanSpeed1         StoveCommand = 5
	SetFanSpeed2         StoveCommand = 6
	SetFanSpeed3         StoveCommand = 7
	SetChronoOnOff       StoveCommand = 8
	SetChronoTemp1       StoveCommand = 9
	SetChronoTemp2       StoveCommand = 10
	SetChronoTemp3       StoveCommand = 11
	SetSanTemperature    StoveCommand = 12
	SetPufTemperature    StoveCommand = 13
	SetBoilerTemperature StoveCommand = 14
	SetRecipe            StoveCommand = 15
	SetPelletSetpoint    StoveCommand = 16
)

var stoveCommandNames = map[StoveCommand]string{
	SetOnOff:             "OnOff",
	SetEcoMode:           "EcoMode",
	SetPowerLevel:        "PowerLevel",
	SetAmbianceTemp1:     "AmbianceTemperature1",
	SetAmbianceTemp2:     "AmbianceTemperature2",
	SetFanSpeed1:         "FanSpeed1",
	SetFanSpeed2:         "FanSpeed2",
	SetFanSpeed3:         "FanSpeed3",
	SetChronoOnOff:       "ChronoOnOff",
	SetChronoTemp1:       "ChronoTemperature1",
	SetChronoTemp2:       "ChronoTemperature2",
	SetChronoTemp3:       "ChronoTemperature3",
	SetSanTemperature:    "SanTemperature",
	SetPufTemperature:    "PufTemperature",
	SetBoilerTemperature: "BoilerTemperature",
	SetRecipe:            "SetRecipe",
	SetPelletSetpoint:    "SetPelletSetpoint",
}

func (c StoveCommand) String() string {
	if name, ok := stoveCommandNames[c]; ok {
		return name
	}
	return "Unknown"
}

// WriteParams returns the DAT/Write parameter list for setting register c to value
func (c StoveCommand) WriteParams(value int) []string {
	return []string{strconv.Itoa(int(c)), strconv.Itoa(value)}
}
