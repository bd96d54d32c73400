// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package hottoh implements the line-based text protocol spoken by HottoH
// pellet-stove controllers.
//
// A frame looks like
//
//	#00042C---0002DATR0;1A2B\n
//
// and is made of a 5-digit request id, a one-character type marker, a literal
// "---" separator, the 4-digit hex length of the parameter section, a 3-letter
// command code, a 1-letter command type, the ';'-terminated parameters and a
// CRC-16/CCITT-FALSE checksum rendered as 4 uppercase hex digits.
//
// This package provides request encoding, frame parsing, checksum
// validation and decoding of the per-command payload records.
package hottoh

// Protocol framing
const (
	FrameStart     = '#'
	FrameEnd       = '\n'
	ParamSeparator = ';'
	Separator      = "---"

	// RequestMarker is the type marker written into every outgoing frame.
	RequestMarker = 'C'
)

// Fixed frame offsets (relative to the leading '#')
const (
	offsetID       = 1
	offsetMarker   = 6
	offsetSep      = 7
	offsetLength   = 10
	offsetCommand  = 14
	offsetType     = 17
	offsetParams   = 18
	checksumDigits = 4

	// '#' + id + marker + "---" + length + command + type + ';' + checksum
	minFrameSize = offsetParams + 1 + checksumDigits
)

// Request identifiers are 5 decimal digits and wrap at MaxRequestID.
const MaxRequestID = 100000

// CRC-16/CCITT-FALSE configuration
const (
	crcPolynomial = 0x1021
	crcInitial    = 0xFFFF
)

// Parameter counts used to re-specialize a generic DAT response
const (
	page0Fields = 36
	page1Fields = 11
	page2Fields = 22
	ackFields   = 1
	infoFields  = 3
)
