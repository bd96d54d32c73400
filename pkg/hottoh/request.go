// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package hottoh

import (
	"fmt"
	"slices"
	"strings"
)

// Request is an outgoing protocol message
type Request struct {
	ID     uint32
	Cmd    Command
	Type   CommandType
	Params []string
}

// NewRequest creates a request. Params are copied.
func NewRequest(id uint32, cmd Command, typ CommandType, params ...string) Request {
	return Request{
		ID:     id % MaxRequestID,
		Cmd:    cmd,
		Type:   typ,
		Params: slices.Clone(params),
	}
}

// NewInfoRequest creates an INF read request
func NewInfoRequest(id uint32) Request {
	return NewRequest(id, CommandInfo, CommandRead)
}

// NewPageRequest creates a DAT read request for data page 0, 1 or 2
func NewPageRequest(id uint32, page int) Request {
	return NewRequest(id, CommandData, CommandRead, fmt.Sprint(page))
}

// NewWriteRequest creates a DAT write request setting register cmd to value
func NewWriteRequest(id uint32, cmd StoveCommand, value int) Request {
	return NewRequest(id, CommandData, CommandWrite, cmd.WriteParams(value)...)
}

// Same reports whether r and other carry the same command, command type and
// parameters. The request id is not compared.
func (r Request) Same(other Request) bool {
	return r.Cmd == other.Cmd &&
		r.Type == other.Type &&
		slices.Equal(r.Params, other.Params)
}

// paramSection returns the parameters joined by ';' with a trailing ';'
func paramSection(params []string) string {
	return strings.Join(params, string(ParamSeparator)) + string(ParamSeparator)
}

// checksumInput returns the canonical string the checksum is computed over:
// the frame without the leading '#', the checksum and the newline.
func checksumInput(id uint32, marker byte, length uint64, cmdCode, typeCode, section string) string {
	return fmt.Sprintf("%05d%c%s%04X%s%s%s", id, marker, Separator, length, cmdCode, typeCode, section)
}

// Encode returns the wire frame for the request, newline included
func (r Request) Encode() []byte {
	return EncodeFrame(r.ID, RequestMarker, r.Cmd, r.Type, r.Params)
}

// EncodeFrame builds a complete frame with the given type marker. Controllers
// answer with their own marker, so this also produces device-side frames.
func EncodeFrame(id uint32, marker byte, cmd Command, typ CommandType, params []string) []byte {
	section := paramSection(params)
	body := checksumInput(id%MaxRequestID, marker, uint64(len(section)), cmd.Code(), typ.Code(), section)

	var b strings.Builder
	b.Grow(len(body) + checksumDigits + 2)
	b.WriteByte(FrameStart)
	b.WriteString(body)
	b.WriteString(Checksum(body))
	b.WriteByte(FrameEnd)
	return []byte(b.String())
}

func (r Request) String() string {
	return fmt.Sprintf("id=%05d %s/%s params=%v", r.ID, r.Cmd, r.Type, r.Params)
}
