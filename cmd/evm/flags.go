package main

import "github.com/urfave/cli/v2"

var (
	codeFlag = &cli.StringFlag{
		Name:  "code",
		Usage: "EVM bytecode as hex",
	}
	codeFileFlag = &cli.StringFlag{
		Name:  "codefile",
		Usage: "File containing EVM bytecode as hex, or - for stdin",
	}
	inputFlag = &cli.StringFlag{
		Name:  "input",
		Usage: "Call data as hex",
	}
	gasFlag = &cli.Uint64Flag{
		Name:  "gas",
		Usage: "Gas limit for the execution",
		Value: 10_000_000,
	}
	valueFlag = &cli.StringFlag{
		Name:  "value",
		Usage: "Value transferred to the executed code (decimal or 0x hex)",
		Value: "0",
	}
	scheduleFlag = &cli.StringFlag{
		Name:  "schedule",
		Usage: "Gas schedule: frontier, homestead, eip150, eip160",
		Value: "eip160",
	}
	originFlag = &cli.StringFlag{
		Name:  "origin",
		Usage: "Transaction origin address",
	}
	traceFlag = &cli.BoolFlag{
		Name:  "trace",
		Usage: "Write a JSON line per executed step to stderr",
	}
	debugFlag = &cli.BoolFlag{
		Name:  "debug",
		Usage: "Log per-opcode timing after each frame (needs --verbosity 4)",
	}
	dumpFlag = &cli.BoolFlag{
		Name:  "dump",
		Usage: "Print the state after execution as JSON",
	}
	configFileFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file",
	}
)

var runFlags = []cli.Flag{
	codeFlag,
	codeFileFlag,
	inputFlag,
	gasFlag,
	valueFlag,
	scheduleFlag,
	originFlag,
	traceFlag,
	debugFlag,
	dumpFlag,
	configFileFlag,
}
