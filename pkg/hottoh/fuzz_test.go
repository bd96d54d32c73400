// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package hottoh

import (
	"math/rand"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"
)

// getFuzzRounds returns the number of fuzz rounds from FUZZ_ROUNDS env var, default 1000
func getFuzzRounds() int {
	if envRounds := os.Getenv("FUZZ_ROUNDS"); envRounds != "" {
		if rounds, err := strconv.Atoi(envRounds); err == nil && rounds > 0 {
			return rounds
		}
	}
	return 1000
}

// getFuzzSeed returns the seed from FUZZ_SEED env var, or generates one from current time
func getFuzzSeed() int64 {
	if envSeed := os.Getenv("FUZZ_SEED"); envSeed != "" {
		if seed, err := strconv.ParseInt(envSeed, 10, 64); err == nil {
			return seed
		}
	}
	return time.Now().UnixNano()
}

func newFuzzRng(t *testing.T) *rand.Rand {
	seed := getFuzzSeed()
	t.Logf("Seed: %d (reproduce with FUZZ_SEED=%d)", seed, seed)
	return rand.New(rand.NewSource(seed))
}

func randomTemperature(rng *rand.Rand) int16 {
	return int16(rng.Intn(1<<16) - 1<<15)
}

func TestFuzz_Page1RoundTrip(t *testing.T) {
	rng := newFuzzRng(t)
	for round := 0; round < getFuzzRounds(); round++ {
		values := make([]int16, page1Fields)
		params := make([]string, page1Fields)
		for i := range values {
			values[i] = randomTemperature(rng)
			params[i] = strconv.Itoa(int(values[i]))
		}
		id := uint32(rng.Intn(MaxRequestID))

		resp, err := DecodeResponse(buildFrame(id, 'A', "DAT", "R", params))
		if err != nil {
			t.Fatalf("round %d: DecodeResponse error: %v", round, err)
		}
		if resp.ID != id || !resp.ChecksumValid {
			t.Fatalf("round %d: id=%d valid=%v", round, resp.ID, resp.ChecksumValid)
		}
		p := resp.Payload.(*Page1)
		temps := []Temperature{p.Temperature1, p.Temperature1Min, p.Temperature1Max,
			p.Temperature2, p.Temperature2Min, p.Temperature2Max,
			p.Temperature3, p.Temperature3Min, p.Temperature3Max}
		if p.Page != values[0] || p.State != values[10] {
			t.Fatalf("round %d: page=%d state=%d, want %d %d", round, p.Page, p.State, values[0], values[10])
		}
		for i, temp := range temps {
			if int16(temp) != values[i+1] {
				t.Fatalf("round %d: field %d = %d, want %d", round, i+1, temp, values[i+1])
			}
		}
	}
}

func TestFuzz_RequestRoundTrip(t *testing.T) {
	rng := newFuzzRng(t)
	for round := 0; round < getFuzzRounds(); round++ {
		reg := StoveCommand(rng.Intn(17))
		req := NewWriteRequest(uint32(rng.Intn(2*MaxRequestID)), reg, rng.Intn(1000)-500)

		f, err := ParseFrame(string(req.Encode()))
		if err != nil {
			t.Fatalf("round %d: ParseFrame(%s) error: %v", round, req, err)
		}
		if !f.ChecksumValid || f.ID != req.ID || strings.Join(f.Params, ";") != strings.Join(req.Params, ";") {
			t.Fatalf("round %d: %s parsed as %s", round, req, FormatFrame(f))
		}
	}
}

// TestFuzz_ParseGarbage checks that arbitrary input never panics
func TestFuzz_ParseGarbage(t *testing.T) {
	rng := newFuzzRng(t)
	alphabet := "#0123456789ABCDEFINFDATRWC-;\r\n"
	for round := 0; round < getFuzzRounds(); round++ {
		n := rng.Intn(64)
		var b strings.Builder
		for i := 0; i < n; i++ {
			b.WriteByte(alphabet[rng.Intn(len(alphabet))])
		}
		for _, frame := range SplitFrames(b.String()) {
			if resp, err := DecodeResponse(frame); err == nil && resp.Payload == nil {
				t.Fatalf("round %d: %q decoded without payload", round, frame)
			}
		}
	}
}
