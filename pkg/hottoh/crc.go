// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package hottoh

import "fmt"

// CalculateCRC computes the CRC-16/CCITT-FALSE checksum for the given data
func CalculateCRC(data []byte) uint16 {
	crc := uint16(crcInitial)
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ crcPolynomial
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// Checksum returns the checksum of s as it appears on the wire: 4 uppercase hex digits.
func Checksum(s string) string {
	return fmt.Sprintf("%04X", CalculateCRC([]byte(s)))
}
