// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package hottoh

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Frame is a parsed inbound frame before payload decoding
type Frame struct {
	ID            uint32
	Marker        byte   // captured verbatim, not validated
	Length        uint64 // parameter-section length as declared by the sender
	Cmd           Command
	Type          CommandType
	Params        []string
	Checksum      string
	ChecksumValid bool
	Raw           string
}

// ParseFrame parses a '#'-prefixed frame using fixed offsets. A trailing
// "\n" or "\r\n" is ignored. The checksum is verified against the canonical
// string rebuilt from the parsed fields.
func ParseFrame(raw string) (*Frame, error) {
	msg := strings.TrimRight(raw, "\r\n")
	if len(msg) == 0 || msg[0] != FrameStart {
		return nil, ErrFrameStart
	}
	if len(msg) < minFrameSize {
		return nil, fmt.Errorf("%w: %d bytes (min %d)", ErrFrameTooShort, len(msg), minFrameSize)
	}

	id, err := strconv.ParseUint(msg[offsetID:offsetMarker], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, msg[offsetID:offsetMarker])
	}

	length, err := strconv.ParseUint(msg[offsetLength:offsetCommand], 16, 16)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLength, msg[offsetLength:offsetCommand])
	}

	cmd, err := ParseCommand(msg[offsetCommand:offsetType])
	if err != nil {
		return nil, err
	}
	typ, err := ParseCommandType(msg[offsetType:offsetParams])
	if err != nil {
		return nil, err
	}

	// The section excludes the ';' that terminates the last parameter
	checksumStart := len(msg) - checksumDigits
	section := msg[offsetParams : checksumStart-1]
	params := strings.Split(section, string(ParamSeparator))

	f := &Frame{
		ID:       uint32(id),
		Marker:   msg[offsetMarker],
		Length:   length,
		Cmd:      cmd,
		Type:     typ,
		Params:   params,
		Checksum: msg[checksumStart:],
		Raw:      msg,
	}
	f.ChecksumValid = f.Checksum == Checksum(checksumInput(f.ID, f.Marker, f.Length, cmd.Code(), typ.Code(), paramSection(params)))
	return f, nil
}

// Specialize resolves a generic DAT command by parameter count. Any other
// command is returned unchanged.
func Specialize(cmd Command, paramCount int) Command {
	if cmd != CommandData {
		return cmd
	}
	switch paramCount {
	case page0Fields:
		return CommandPage0
	case page1Fields:
		return CommandPage1
	case page2Fields:
		return CommandPage2
	case ackFields:
		return CommandAck
	}
	return cmd
}

// Response is a decoded inbound frame
type Response struct {
	ID            uint32
	Cmd           Command // after re-specialization
	Type          CommandType
	Params        []string
	Payload       Payload
	ChecksumValid bool
	ReceivedAt    time.Time
}

// DecodeResponse parses a frame, re-specializes DAT by parameter count and
// decodes the payload record. A generic DAT with an unexpected parameter
// count fails with ErrNotImplemented.
func DecodeResponse(raw string) (*Response, error) {
	f, err := ParseFrame(raw)
	if err != nil {
		return nil, err
	}
	return f.Decode()
}

// Decode converts a parsed frame into a Response
func (f *Frame) Decode() (*Response, error) {
	now := time.Now()
	cmd := Specialize(f.Cmd, len(f.Params))
	payload, err := DecodePayload(cmd, f.Params, now)
	if err != nil {
		return nil, err
	}
	return &Response{
		ID:            f.ID,
		Cmd:           cmd,
		Type:          f.Type,
		Params:        f.Params,
		Payload:       payload,
		ChecksumValid: f.ChecksumValid,
		ReceivedAt:    now,
	}, nil
}

// SplitFrames splits a chunk read from the device on the '#' delimiter and
// re-prefixes every non-empty segment.
func SplitFrames(chunk string) []string {
	parts := strings.Split(chunk, string(FrameStart))
	frames := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		frames = append(frames, string(FrameStart)+p)
	}
	return frames
}
