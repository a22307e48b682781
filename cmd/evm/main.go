// Command evm runs and inspects bytecode with the metered interpreter.
//
// Usage:
//
//	evm [global flags] run [flags]
//	evm disasm <hex code>
//	evm asm <instructions>
//	evm dumpconfig [flags]
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"
)

// Build-time version info, overridable with ldflags:
//
//	go build -ldflags "-X main.version=v0.2.0 -X main.commit=abc1234"
var (
	version = "v0.1.0-dev"
	commit  = "unknown"
)

var verbosityFlag = &cli.IntFlag{
	Name:  "verbosity",
	Usage: "Log level 0-5 (0=silent, 5=trace)",
	Value: 3,
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "evm",
		Usage:   "metered EVM bytecode interpreter",
		Version: fmt.Sprintf("%s (commit %s)", version, commit),
		Flags:   []cli.Flag{verbosityFlag},
		Before: func(ctx *cli.Context) error {
			setupLogging(ctx.Int(verbosityFlag.Name))
			return nil
		},
		Commands: []*cli.Command{
			runCommand,
			disasmCommand,
			asmCommand,
			dumpConfigCommand,
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogging(verbosity int) {
	var lvl slog.Level
	switch {
	case verbosity <= 0:
		lvl = log.LevelCrit
	case verbosity == 1:
		lvl = slog.LevelError
	case verbosity == 2:
		lvl = slog.LevelWarn
	case verbosity == 3:
		lvl = slog.LevelInfo
	case verbosity == 4:
		lvl = slog.LevelDebug
	default:
		lvl = log.LevelTrace
	}
	log.SetDefault(log.NewLogger(log.NewTerminalHandlerWithLevel(os.Stderr, lvl, true)))
}
