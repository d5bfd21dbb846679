// Copyright © 2026 Polymodo contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/polymodo/main.go
// Summary: Client CLI: spawn an app in the running daemon and print its
// result, or ping the daemon.

package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/polymodo/polymodo/client"
	"github.com/polymodo/polymodo/config"
)

func main() {
	socket := flag.String("socket", "", "Socket address ('@name' for abstract)")
	ping := flag.Bool("ping", false, "Check that the daemon is alive")
	spawn := flag.String("spawn", "", "Spawn the named app and wait for its result")
	single := flag.Bool("single", false, "Skip spawning when an instance is already running")
	timeout := flag.Duration("timeout", 10*time.Second, "How long to wait for a single-instance reply (0 waits forever)")
	flag.Parse()

	addr := *socket
	if addr == "" {
		cfg, err := config.Load("")
		if err != nil {
			fatal("load config: %v", err)
		}
		addr = cfg.Socket
	}

	c, err := client.Dial(addr)
	if err != nil {
		fatal("%v", err)
	}
	defer c.Close()

	switch {
	case *ping:
		if err := c.Ping(); err != nil {
			fatal("ping: %v", err)
		}
		fmt.Println("pong")

	case *spawn != "":
		deadline := time.Duration(0)
		if *single {
			// A dropped single-instance request gets no reply; bound the
			// wait so the CLI does not hang.
			deadline = *timeout
		}
		result, err := c.SpawnAndWait(*spawn, *single, deadline)
		if err != nil {
			fatal("spawn %s: %v", *spawn, err)
		}
		if result == "" {
			if term.IsTerminal(int(os.Stdout.Fd())) {
				fmt.Println("(no result)")
			}
			return
		}
		fmt.Println(result)

	default:
		flag.Usage()
		os.Exit(2)
	}
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
