// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package hottoh

import (
	"encoding/json"
	"errors"
	"math"
	"slices"
	"strings"
	"testing"
	"time"
)

// buildFrame assembles an inbound frame with a valid checksum
func buildFrame(id uint32, marker byte, cmd, typ string, params []string) string {
	section := paramSection(params)
	body := checksumInput(id, marker, uint64(len(section)), cmd, typ, section)
	return string(FrameStart) + body + Checksum(body) + string(FrameEnd)
}

// page0Params returns a valid 36-field data page 0
func page0Params() []string {
	params := make([]string, page0Fields)
	for i := range params {
		params[i] = "0"
	}
	params[1] = "85"   // manufacturer
	params[3] = "1"    // valid
	params[4] = "499"  // stove type
	params[5] = "8"    // state: power
	params[6] = "1"    // on
	params[9] = "215"  // ambient t1
	params[10] = "220" // ambient t1 set
	params[21] = "-15" // smoke
	params[22] = "3"   // power level
	return params
}

// ============================================================
// CRC Tests
// ============================================================

func TestCalculateCRC_Empty(t *testing.T) {
	crc := CalculateCRC([]byte{})
	if crc != crcInitial {
		t.Errorf("CRC of empty data should be initial value, got 0x%04X", crc)
	}
}

func TestCalculateCRC_KnownValues(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected uint16
	}{
		{
			name:     "ASCII '123456789'",
			data:     []byte("123456789"),
			expected: 0x29B1,
		},
		{
			name:     "single 'A'",
			data:     []byte("A"),
			expected: 0xB915,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			crc := CalculateCRC(tt.data)
			if crc != tt.expected {
				t.Errorf("CRC mismatch: expected 0x%04X, got 0x%04X", tt.expected, crc)
			}
		})
	}
}

func TestChecksum_Format(t *testing.T) {
	if got := Checksum("123456789"); got != "29B1" {
		t.Errorf("Checksum() = %q, want %q", got, "29B1")
	}
}

// ============================================================
// Encoding Tests
// ============================================================

func TestRequestEncode_Layout(t *testing.T) {
	req := NewPageRequest(42, 0)
	frame := string(req.Encode())

	prefix := "#00042C---0002DATR0;"
	if !strings.HasPrefix(frame, prefix) {
		t.Fatalf("frame = %q, want prefix %q", frame, prefix)
	}
	if !strings.HasSuffix(frame, "\n") {
		t.Errorf("frame %q is not newline terminated", frame)
	}
	if len(frame) != len(prefix)+checksumDigits+1 {
		t.Errorf("frame length = %d, want %d", len(frame), len(prefix)+checksumDigits+1)
	}
	want := Checksum("00042C---0002DATR0;")
	if got := frame[len(prefix) : len(prefix)+checksumDigits]; got != want {
		t.Errorf("checksum = %q, want %q", got, want)
	}
}

func TestRequestEncode_WriteRegister(t *testing.T) {
	req := NewWriteRequest(7, SetPowerLevel, 4)
	frame := string(req.Encode())
	if !strings.HasPrefix(frame, "#00007C---0004DATW2;4;") {
		t.Errorf("frame = %q", frame)
	}
}

func TestNewRequest_WrapsID(t *testing.T) {
	req := NewInfoRequest(MaxRequestID + 5)
	if req.ID != 5 {
		t.Errorf("ID = %d, want 5", req.ID)
	}
}

func TestNewRequest_CopiesParams(t *testing.T) {
	params := []string{"1", "2"}
	req := NewRequest(1, CommandData, CommandWrite, params...)
	params[0] = "9"
	if req.Params[0] != "1" {
		t.Error("request params alias the caller's slice")
	}
}

func TestRequestSame(t *testing.T) {
	a := NewPageRequest(1, 0)
	tests := []struct {
		name  string
		other Request
		want  bool
	}{
		{"different id", NewPageRequest(2, 0), true},
		{"different page", NewPageRequest(1, 1), false},
		{"different command", NewInfoRequest(1), false},
		{"different type", NewRequest(1, CommandData, CommandWrite, "0"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.Same(tt.other); got != tt.want {
				t.Errorf("Same() = %v, want %v", got, tt.want)
			}
		})
	}
}

// ============================================================
// Parsing Tests
// ============================================================

func TestEncodeParse_RoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		req    Request
		params []string
	}{
		{"info read", NewInfoRequest(1), []string{""}},
		{"page read", NewPageRequest(99999, 2), []string{"2"}},
		{"write", NewWriteRequest(123, SetEcoMode, 1), []string{"1", "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ParseFrame(string(tt.req.Encode()))
			if err != nil {
				t.Fatalf("ParseFrame error: %v", err)
			}
			if !f.ChecksumValid {
				t.Error("checksum of an encoded request should validate")
			}
			if f.ID != tt.req.ID {
				t.Errorf("ID = %d, want %d", f.ID, tt.req.ID)
			}
			if f.Marker != RequestMarker {
				t.Errorf("Marker = %c, want %c", f.Marker, RequestMarker)
			}
			if f.Cmd != tt.req.Cmd || f.Type != tt.req.Type {
				t.Errorf("got %s/%s, want %s/%s", f.Cmd, f.Type, tt.req.Cmd, tt.req.Type)
			}
			if !slices.Equal(f.Params, tt.params) {
				t.Errorf("Params = %q, want %q", f.Params, tt.params)
			}
		})
	}
}

func TestDecodeResponse_Info(t *testing.T) {
	raw := buildFrame(12, 'A', "INF", "R", []string{"stove-01", "1.2.3", "-61"})
	resp, err := DecodeResponse(raw)
	if err != nil {
		t.Fatalf("DecodeResponse error: %v", err)
	}
	if resp.Cmd != CommandInfo || !resp.ChecksumValid || resp.ID != 12 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	info, ok := resp.Payload.(*Info)
	if !ok {
		t.Fatalf("Payload is %T, want *Info", resp.Payload)
	}
	if info.Hostname != "stove-01" || info.Version != "1.2.3" || info.Signal != "-61" {
		t.Errorf("Info = %+v", info)
	}
	if info.UpdatedAt.IsZero() {
		t.Error("UpdatedAt not set")
	}
}

func TestDecodeResponse_Page0(t *testing.T) {
	resp, err := DecodeResponse(buildFrame(3, 'A', "DAT", "R", page0Params()))
	if err != nil {
		t.Fatalf("DecodeResponse error: %v", err)
	}
	if resp.Cmd != CommandPage0 {
		t.Fatalf("Cmd = %s, want DAT0", resp.Cmd)
	}
	p := resp.Payload.(*Page0)
	if p.Manufacturer != ManufacturerEdilkamin {
		t.Errorf("Manufacturer = %v", p.Manufacturer)
	}
	if p.StoveState != StatePower || !p.StoveOn || p.EcoMode {
		t.Errorf("State = %s on=%v eco=%v", p.StoveState, p.StoveOn, p.EcoMode)
	}
	if p.AmbientT1.Celsius() != 21.5 || p.AmbientT1Set.Celsius() != 22.0 {
		t.Errorf("AmbientT1 = %v set %v", p.AmbientT1, p.AmbientT1Set)
	}
	if p.SmokeT.Celsius() != -1.5 {
		t.Errorf("SmokeT = %v, want -1.5", p.SmokeT.Celsius())
	}
	if p.PowerLevel != 3 {
		t.Errorf("PowerLevel = %d", p.PowerLevel)
	}
	if p.StoveType.Raw != 499 || p.StoveType.FanNumber != 0 {
		t.Errorf("StoveType = %+v", p.StoveType)
	}
}

func TestDecodeResponse_Respecialization(t *testing.T) {
	tests := []struct {
		name  string
		count int
		want  Command
	}{
		{"page 0", page0Fields, CommandPage0},
		{"page 1", page1Fields, CommandPage1},
		{"page 2", page2Fields, CommandPage2},
		{"ack", ackFields, CommandAck},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var params []string
			if tt.count == page0Fields {
				params = page0Params()
			} else {
				params = make([]string, tt.count)
				for i := range params {
					params[i] = "1"
				}
			}
			resp, err := DecodeResponse(buildFrame(1, 'A', "DAT", "R", params))
			if err != nil {
				t.Fatalf("DecodeResponse error: %v", err)
			}
			if resp.Cmd != tt.want {
				t.Errorf("Cmd = %s, want %s", resp.Cmd, tt.want)
			}
			if resp.Payload.Command() != tt.want {
				t.Errorf("Payload.Command() = %s, want %s", resp.Payload.Command(), tt.want)
			}
		})
	}
}

func TestDecodeResponse_UnknownDataArity(t *testing.T) {
	_, err := DecodeResponse(buildFrame(1, 'A', "DAT", "R", []string{"1", "2", "3", "4", "5"}))
	if !errors.Is(err, ErrNotImplemented) {
		t.Fatalf("err = %v, want ErrNotImplemented", err)
	}
	if Classify(err) != ClassSemantic {
		t.Errorf("Classify = %s, want semantic", Classify(err))
	}
}

func TestDecodeResponse_InfoArity(t *testing.T) {
	_, err := DecodeResponse(buildFrame(1, 'A', "INF", "R", []string{"only-one"}))
	var se *StructureError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *StructureError", err)
	}
	if se.Got != 1 || se.Want != infoFields {
		t.Errorf("StructureError = %+v", se)
	}
	if Classify(err) != ClassStructural {
		t.Errorf("Classify = %s, want structural", Classify(err))
	}
}

func TestDecodeResponse_InvalidFields(t *testing.T) {
	tests := []struct {
		name  string
		index int
		value string
		field string
	}{
		{"bool out of range", 6, "2", "stove_on"},
		{"bool word", 7, "true", "eco_mode"},
		{"unknown state", 5, "42", "stove_state"},
		{"non-numeric temperature", 9, "abc", "ambient_t1"},
		{"temperature overflow", 17, "40000", "water"},
		{"negative unsigned", 22, "-1", "power_level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := page0Params()
			params[tt.index] = tt.value
			_, err := DecodeResponse(buildFrame(1, 'A', "DAT", "R", params))
			var se *StructureError
			if !errors.As(err, &se) {
				t.Fatalf("err = %v, want *StructureError", err)
			}
			if se.Field != tt.field || se.Value != tt.value {
				t.Errorf("StructureError field=%q value=%q, want %q %q", se.Field, se.Value, tt.field, tt.value)
			}
		})
	}
}

func TestParseFrame_CorruptedChecksum(t *testing.T) {
	raw := strings.TrimSuffix(buildFrame(5, 'A', "DAT", "R", []string{"1"}), "\n")
	last := raw[len(raw)-1]
	flipped := byte('0')
	if last == '0' {
		flipped = '1'
	}
	raw = raw[:len(raw)-1] + string(flipped)

	resp, err := DecodeResponse(raw)
	if err != nil {
		t.Fatalf("DecodeResponse error: %v", err)
	}
	if resp.ChecksumValid {
		t.Error("corrupted checksum reported as valid")
	}
	if resp.Cmd != CommandAck {
		t.Errorf("Cmd = %s, want DATAck", resp.Cmd)
	}
}

func TestParseFrame_MarkerNotValidated(t *testing.T) {
	for _, marker := range []byte{'A', 'C', 'z'} {
		f, err := ParseFrame(buildFrame(1, marker, "DAT", "R", []string{"1"}))
		if err != nil {
			t.Fatalf("marker %c: %v", marker, err)
		}
		if f.Marker != marker || !f.ChecksumValid {
			t.Errorf("marker %c: got %c valid=%v", marker, f.Marker, f.ChecksumValid)
		}
	}
}

func TestParseFrame_CRLF(t *testing.T) {
	raw := strings.TrimSuffix(buildFrame(1, 'A', "DAT", "R", []string{"1"}), "\n") + "\r\n"
	f, err := ParseFrame(raw)
	if err != nil {
		t.Fatalf("ParseFrame error: %v", err)
	}
	if !f.ChecksumValid {
		t.Error("CRLF terminated frame failed checksum")
	}
}

func TestParseFrame_Errors(t *testing.T) {
	valid := buildFrame(1, 'A', "DAT", "R", []string{"1"})
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"empty", "", ErrFrameStart},
		{"missing start", "X" + valid[1:], ErrFrameStart},
		{"too short", "#00001A---0002DATR", ErrFrameTooShort},
		{"bad id", "#0a001" + valid[6:], ErrInvalidID},
		{"bad length", valid[:10] + "zz02" + valid[14:], ErrInvalidLength},
		{"unknown command", valid[:14] + "XYZ" + valid[17:], ErrUnknownCommand},
		{"unknown type", valid[:17] + "Q" + valid[18:], ErrUnknownCommandType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFrame(tt.raw)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	if Classify(nil) != ClassNone {
		t.Error("nil error should classify as none")
	}
	if Classify(ErrFrameTooShort) != ClassFraming {
		t.Error("short frame should classify as framing")
	}
	if Classify(ErrUnknownCommand) != ClassSemantic {
		t.Error("unknown command should classify as semantic")
	}
}

func TestSplitFrames(t *testing.T) {
	tests := []struct {
		name  string
		chunk string
		want  []string
	}{
		{"empty", "", []string{}},
		{"single", "#abc\n", []string{"#abc\n"}},
		{"multiple", "#a\n#b\n", []string{"#a\n", "#b\n"}},
		{"leading garbage kept", "xx#a", []string{"#xx", "#a"}},
		{"bare delimiters", "##", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitFrames(tt.chunk)
			if !slices.Equal(got, tt.want) {
				t.Errorf("SplitFrames(%q) = %q, want %q", tt.chunk, got, tt.want)
			}
		})
	}
}

// ============================================================
// Value Type Tests
// ============================================================

func TestDecodeDeviceType(t *testing.T) {
	tests := []struct {
		name string
		raw  uint16
		want DeviceType
	}{
		{
			name: "all facets",
			raw:  499,
			want: DeviceType{Raw: 499, PumpEnabled: true, BoilerEnabled: true, DomesticHotWaterEnabled: true,
				FanNumber: 0, TempRoom1Enabled: true, TempRoom2Enabled: true, TempRoom3Enabled: true, TempWaterEnabled: true},
		},
		{
			name: "room 1 with three fans",
			raw:  0b1101,
			want: DeviceType{Raw: 13, FanNumber: 3, TempRoom1Enabled: true},
		},
		{
			name: "nothing",
			raw:  0,
			want: DeviceType{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DecodeDeviceType(tt.raw); got != tt.want {
				t.Errorf("DecodeDeviceType(%d) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestTemperature(t *testing.T) {
	tests := []struct {
		raw  Temperature
		want float64
		str  string
	}{
		{370, 37.0, "37.0°C"},
		{-15, -1.5, "-1.5°C"},
		{0, 0, "0.0°C"},
	}
	for _, tt := range tests {
		if got := tt.raw.Celsius(); got != tt.want {
			t.Errorf("Temperature(%d).Celsius() = %v, want %v", tt.raw, got, tt.want)
		}
		if got := tt.raw.String(); got != tt.str {
			t.Errorf("Temperature(%d).String() = %q, want %q", tt.raw, got, tt.str)
		}
	}
}

func TestTemperatureFromCelsius(t *testing.T) {
	tests := []struct {
		in      float64
		want    Temperature
		wantErr bool
	}{
		{21.5, 215, false},
		{21.59, 215, false},
		{-1.55, -15, false},
		{math.NaN(), 0, true},
		{math.Inf(1), 0, true},
		{5000, 0, true},
	}
	for _, tt := range tests {
		got, err := TemperatureFromCelsius(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("TemperatureFromCelsius(%v) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("TemperatureFromCelsius(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestPage0_JSON(t *testing.T) {
	p, err := DecodePayload(CommandPage0, page0Params(), time.Unix(0, 0).UTC())
	if err != nil {
		t.Fatalf("DecodePayload error: %v", err)
	}
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if m["manufacturer"] != "Edilkamin" {
		t.Errorf("manufacturer = %v", m["manufacturer"])
	}
	if m["stove_state"] != "Power" {
		t.Errorf("stove_state = %v", m["stove_state"])
	}
	if m["ambient_t1"] != 21.5 {
		t.Errorf("ambient_t1 = %v", m["ambient_t1"])
	}
}

func TestManufacturer_UnknownJSON(t *testing.T) {
	data, err := json.Marshal(Manufacturer(3))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "3" {
		t.Errorf("Marshal = %s, want 3", data)
	}
}

func TestParseStoveState(t *testing.T) {
	if s, err := ParseStoveState("61"); err != nil || s != StateNoPellet {
		t.Errorf("ParseStoveState(61) = %v, %v", s, err)
	}
	if _, err := ParseStoveState("18"); err == nil {
		t.Error("ParseStoveState(18) should fail")
	}
}

func TestFormatResponse(t *testing.T) {
	resp, err := DecodeResponse(buildFrame(8, 'A', "DAT", "R", page0Params()))
	if err != nil {
		t.Fatal(err)
	}
	out := FormatResponse(resp)
	for _, want := range []string{"DAT0/Read", "id=00008", "Power", "21.5°C", "Edilkamin"} {
		if !strings.Contains(out, want) {
			t.Errorf("FormatResponse output missing %q:\n%s", want, out)
		}
	}
}

func TestPage0_JSONDecode(t *testing.T) {
	p, err := DecodePayload(CommandPage0, page0Params(), time.Unix(0, 0).UTC())
	if err != nil {
		t.Fatalf("DecodePayload error: %v", err)
	}
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	var back Page0
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	want := *p.(*Page0)
	if !back.UpdatedAt.Equal(want.UpdatedAt) {
		t.Errorf("UpdatedAt = %v, want %v", back.UpdatedAt, want.UpdatedAt)
	}
	back.UpdatedAt = want.UpdatedAt
	if back != want {
		t.Errorf("decoded page differs:\n got %+v\nwant %+v", back, want)
	}
}

func TestTemperature_UnmarshalRounds(t *testing.T) {
	var temp Temperature
	if err := json.Unmarshal([]byte("19.9"), &temp); err != nil {
		t.Fatal(err)
	}
	if temp != 199 {
		t.Errorf("Temperature = %d, want 199", temp)
	}
}
