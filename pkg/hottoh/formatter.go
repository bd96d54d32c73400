// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package hottoh

import (
	"fmt"
	"strings"
)

// FormatResponse formats a decoded response into a human-readable string
func FormatResponse(r *Response) string {
	timestamp := r.ReceivedAt.Format("15:04:05.000")
	crc := "ok"
	if !r.ChecksumValid {
		crc = "BAD"
	}

	result := fmt.Sprintf("[%s] %s/%s id=%05d params=%d crc=%s\n",
		timestamp, r.Cmd, r.Type, r.ID, len(r.Params), crc)
	return result + FormatPayload(r.Payload)
}

// FormatFrame formats a parsed frame that could not be decoded further
func FormatFrame(f *Frame) string {
	crc := "ok"
	if !f.ChecksumValid {
		crc = "BAD"
	}
	return fmt.Sprintf("%s/%s id=%05d marker=%c len=%04X crc=%s params=%s\n",
		f.Cmd, f.Type, f.ID, f.Marker, f.Length, crc, strings.Join(f.Params, ";"))
}

// FormatPayload formats a payload record, one indented line per group
func FormatPayload(p Payload) string {
	switch v := p.(type) {
	case *Info:
		return fmt.Sprintf("  Hostname: %s, Version: %s, Signal: %s\n", v.Hostname, v.Version, v.Signal)

	case *Page0:
		var b strings.Builder
		fmt.Fprintf(&b, "  State: %s (%d), On: %s, Eco: %s, Manufacturer: %s\n",
			v.StoveState, int(v.StoveState), onOff(v.StoveOn), onOff(v.EcoMode), v.Manufacturer)
		fmt.Fprintf(&b, "  Room 1: %s (set %s), Room 2: %s (set %s)\n",
			v.AmbientT1, v.AmbientT1Set, v.AmbientT2, v.AmbientT2Set)
		fmt.Fprintf(&b, "  Water: %s (set %s), Smoke: %s\n", v.Water, v.WaterSet, v.SmokeT)
		fmt.Fprintf(&b, "  Power: %d (set %d, range %d-%d)\n", v.PowerLevel, v.PowerSet, v.PowerMin, v.PowerMax)
		fmt.Fprintf(&b, "  Fans: smoke=%d 1=%d/%d 2=%d/%d 3=%d/%d (installed %d)\n",
			v.FanSmoke, v.Fan1, v.Fan1Set, v.Fan2, v.Fan2Set, v.Fan3, v.Fan3Set, v.StoveType.FanNumber)
		return b.String()

	case *Page1:
		return fmt.Sprintf("  Probes: 1=%s 2=%s 3=%s, State: %d\n",
			v.Temperature1, v.Temperature2, v.Temperature3, v.State)

	case *Page2:
		var b strings.Builder
		fmt.Fprintf(&b, "  Puffer: %s (set %s), Boiler: %s (set %s)\n", v.Puffer, v.PufferSet, v.Boiler, v.BoilerSet)
		fmt.Fprintf(&b, "  DHW: %s (set %s), Room 3: %s (set %s)\n", v.DHW, v.DHWSet, v.RoomTemp3, v.RoomTemp3Set)
		fmt.Fprintf(&b, "  Flow switch: %d, Pump: %d, Airex: %d/%d/%d\n",
			v.FlowSwitch, v.GenericPump, v.Airex1, v.Airex2, v.Airex3)
		return b.String()

	case *Ack:
		return fmt.Sprintf("  Ack: %s\n", v.Value)

	case nil:
		return "  (no payload)\n"
	}
	return fmt.Sprintf("  %v\n", p)
}

func onOff(b bool) string {
	if b {
		return "On"
	}
	return "Off"
}
