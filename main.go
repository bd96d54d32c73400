// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// hottoh-bridge - HottoH pellet stove bridge
//
// Keeps a persistent link to a HottoH stove controller, polls its state and
// exposes it, together with write commands, over HTTP.

package main

import (
	"fmt"
	"os"

	"github.com/Thermoquad/hottoh-bridge/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
