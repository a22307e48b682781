package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"
	"github.com/urfave/cli/v2"

	"github.com/eth2030/meteredvm/core/state"
	"github.com/eth2030/meteredvm/core/types"
	"github.com/eth2030/meteredvm/core/vm"
	"github.com/eth2030/meteredvm/core/vm/runtime"
)

var runCommand = &cli.Command{
	Action:    runCmd,
	Name:      "run",
	Usage:     "Run arbitrary EVM bytecode",
	ArgsUsage: "[hex code]",
	Flags:     runFlags,
	Description: `The run command executes bytecode at a fixed address in an empty
state and prints the return data and the gas used.`,
}

var dumpConfigCommand = &cli.Command{
	Action: dumpConfig,
	Name:   "dumpconfig",
	Usage:  "Show configuration values",
	Flags:  runFlags,
	Description: `The dumpconfig command shows the run settings after the config file
and flags are applied.`,
}

// makeConfig loads the config file, if any, and applies the flags set on
// the command line on top of it.
func makeConfig(ctx *cli.Context) (evmConfig, error) {
	cfg := defaultConfig()
	if file := ctx.String(configFileFlag.Name); file != "" {
		if err := loadConfig(file, &cfg); err != nil {
			return cfg, err
		}
	}
	if ctx.IsSet(gasFlag.Name) {
		cfg.Gas = ctx.Uint64(gasFlag.Name)
	}
	if ctx.IsSet(valueFlag.Name) {
		cfg.Value = ctx.String(valueFlag.Name)
	}
	if ctx.IsSet(scheduleFlag.Name) {
		cfg.Schedule = ctx.String(scheduleFlag.Name)
	}
	if ctx.IsSet(originFlag.Name) {
		cfg.Origin = ctx.String(originFlag.Name)
	}
	return cfg, nil
}

func dumpConfig(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	out, err := tomlSettings.Marshal(&cfg)
	if err != nil {
		return err
	}
	_, err = ctx.App.Writer.Write(out)
	return err
}

// runtimeConfig converts the settings into a runtime configuration.
func runtimeConfig(cfg *evmConfig) (*runtime.Config, error) {
	schedule, err := vm.ScheduleByName(cfg.Schedule)
	if err != nil {
		return nil, err
	}
	value, err := parseWord(cfg.Value)
	if err != nil {
		return nil, fmt.Errorf("invalid value: %w", err)
	}
	gasPrice, err := parseWord(cfg.GasPrice)
	if err != nil {
		return nil, fmt.Errorf("invalid gas price: %w", err)
	}
	difficulty, err := parseWord(cfg.Difficulty)
	if err != nil {
		return nil, fmt.Errorf("invalid difficulty: %w", err)
	}
	origin, err := parseAddress(cfg.Origin)
	if err != nil {
		return nil, fmt.Errorf("invalid origin: %w", err)
	}
	coinbase, err := parseAddress(cfg.Coinbase)
	if err != nil {
		return nil, fmt.Errorf("invalid coinbase: %w", err)
	}
	rcfg := &runtime.Config{
		Schedule:    schedule,
		Origin:      origin,
		Coinbase:    coinbase,
		BlockNumber: cfg.BlockNumber,
		Time:        cfg.Timestamp,
		Difficulty:  difficulty,
		GasLimit:    cfg.Gas,
		GasPrice:    gasPrice,
		Value:       value,
	}
	if cfg.JumpDestCacheSize > 0 {
		rcfg.JumpDests = vm.NewJumpDestCache(cfg.JumpDestCacheSize)
	}
	return rcfg, nil
}

func runCmd(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	code, err := readCode(ctx)
	if err != nil {
		return err
	}
	input, err := decodeHex(ctx.String(inputFlag.Name))
	if err != nil {
		return fmt.Errorf("invalid input: %w", err)
	}
	rcfg, err := runtimeConfig(&cfg)
	if err != nil {
		return err
	}
	rcfg.VMConfig.Debug = ctx.Bool(debugFlag.Name)

	var tracer *vm.StructLogger
	if ctx.Bool(traceFlag.Name) {
		tracer = vm.NewStructLogger(cfg.TraceLimit)
		rcfg.VMConfig.Tracer = tracer
	}
	st := state.NewMemoryStateDB()
	if !rcfg.Value.IsZero() {
		// The origin is funded with exactly the value it sends.
		st.AddBalance(rcfg.Origin, rcfg.Value)
	}
	rcfg.State = st

	log.Debug("Running code", "size", len(code), "gas", cfg.Gas, "schedule", cfg.Schedule)
	start := time.Now()
	res, _, err := runtime.Execute(code, input, rcfg)
	elapsed := time.Since(start)

	if tracer != nil {
		if werr := tracer.WriteJSON(ctx.App.ErrWriter); werr != nil {
			return werr
		}
	}
	if res != nil {
		printResult(ctx.App.Writer, res, elapsed)
	}
	if ctx.Bool(dumpFlag.Name) {
		enc := json.NewEncoder(ctx.App.Writer)
		enc.SetIndent("", "  ")
		if derr := enc.Encode(st.Dump()); derr != nil {
			return derr
		}
	}
	if err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}
	return nil
}

func printResult(w io.Writer, res *runtime.Result, elapsed time.Duration) {
	fmt.Fprintf(w, "output: %s\n", hexutil.Bytes(res.ReturnData))
	fmt.Fprintf(w, "gas used: %d\n", res.GasUsed)
	if res.Refund > 0 {
		fmt.Fprintf(w, "refund: %d\n", res.Refund)
	}
	for _, l := range res.Logs {
		fmt.Fprintf(w, "log: address=%s topics=%v data=%s\n", l.Address, l.Topics, hexutil.Bytes(l.Data))
	}
	fmt.Fprintf(w, "time: %v\n", elapsed)
}

// readCode takes the code from the --code flag, the --codefile flag or the
// first argument, in that order.
func readCode(ctx *cli.Context) ([]byte, error) {
	var src string
	switch {
	case ctx.String(codeFlag.Name) != "":
		src = ctx.String(codeFlag.Name)
	case ctx.String(codeFileFlag.Name) != "":
		var (
			data []byte
			err  error
		)
		if name := ctx.String(codeFileFlag.Name); name == "-" {
			data, err = io.ReadAll(os.Stdin)
		} else {
			data, err = os.ReadFile(name)
		}
		if err != nil {
			return nil, fmt.Errorf("could not load code: %w", err)
		}
		src = string(data)
	case ctx.Args().Present():
		src = ctx.Args().First()
	default:
		return nil, errors.New("no code given, use --code, --codefile or an argument")
	}
	code, err := decodeHex(src)
	if err != nil {
		return nil, fmt.Errorf("invalid code: %w", err)
	}
	return code, nil
}

// decodeHex accepts hex with or without 0x prefix and surrounding
// whitespace.
func decodeHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	return hexutil.Decode(s)
}

// parseWord reads a decimal or 0x-prefixed hex number.
func parseWord(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return new(uint256.Int), nil
	}
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return uint256.FromDecimal(s)
	}
	digits := s[2:]
	if len(digits)%2 == 1 {
		digits = "0" + digits
	}
	b, err := hexutil.Decode("0x" + digits)
	if err != nil {
		return nil, err
	}
	if len(b) > 32 {
		return nil, errors.New("number exceeds 256 bits")
	}
	return new(uint256.Int).SetBytes(b), nil
}

func parseAddress(s string) (types.Address, error) {
	var addr types.Address
	if s == "" {
		return addr, nil
	}
	err := addr.UnmarshalText([]byte(s))
	return addr, err
}
