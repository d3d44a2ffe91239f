package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ctagard/chrome-dap-bridge/internal/dap"
)

var (
	version = "0.1.0"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version and exit")
	help := flag.Bool("help", false, "Show help and exit")

	flag.Parse()

	if *showVersion {
		fmt.Printf("dap-bridge version %s\n", version)
		os.Exit(0)
	}

	if *help {
		printHelp()
		os.Exit(0)
	}

	// Stdout carries the protocol; everything human-readable goes to stderr.
	log.SetOutput(os.Stderr)

	ctx, cancel := context.WithCancel(context.Background())
	session := dap.NewSession(os.Stdin, os.Stdout)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		log.Println("Shutting down...")
		session.Adapter().Disconnect()
		cancel()
		os.Exit(0)
	}()

	log.Println("DAP bridge starting...")
	if err := session.Run(ctx); err != nil {
		log.Fatalf("Session error: %v", err)
	}
}

func printHelp() {
	fmt.Println(`dap-bridge: Debug Adapter Protocol bridge for Chrome-style runtimes

A debug adapter that speaks DAP over stdio to the IDE and the Chrome remote
debugging protocol over WebSocket to a running script runtime.

USAGE:
    dap-bridge [OPTIONS]

OPTIONS:
    -version           Show version and exit
    -help              Show this help message

ATTACH CONFIGURATION:
    The adapter only attaches to already-running runtimes. Example:

    {
        "type": "chrome-bridge",
        "request": "attach",
        "address": "localhost",
        "port": 9229,
        "sourceMaps": true,
        "smartStep": true,
        "skipFiles": ["**/node_modules/**"],
        "showAsyncStacks": true
    }

    Set "webSocketUrl" to bypass HTTP target discovery, or "url" to pick one
    of several discovered targets by substring.

CUSTOM REQUESTS:
    toggleSkipFileStatus   Flip the skip classification of a file in the
                           current call stack.

REPL META-COMMANDS:
    .scripts               List every script the runtime has parsed
    .scripts <name>        Dump the source of one script`)
}
