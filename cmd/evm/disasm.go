package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/urfave/cli/v2"

	"github.com/eth2030/meteredvm/core/vm"
)

var disasmCommand = &cli.Command{
	Action:    disasmCmd,
	Name:      "disasm",
	Usage:     "Disassemble EVM bytecode",
	ArgsUsage: "<hex code>",
	Flags:     []cli.Flag{codeFlag, codeFileFlag},
}

var asmCommand = &cli.Command{
	Action:    asmCmd,
	Name:      "asm",
	Usage:     "Assemble mnemonics into EVM bytecode",
	ArgsUsage: "<instructions>",
	Description: `Instructions are whitespace separated mnemonics. Every PUSHn is
followed by its immediate in hex, e.g. "PUSH1 0x2a PUSH1 0 MSTORE".`,
}

func disasmCmd(ctx *cli.Context) error {
	code, err := readCode(ctx)
	if err != nil {
		return err
	}
	return disassemble(ctx.App.Writer, code)
}

// disassemble writes one line per instruction. PUSH immediates that run
// past the end of the code read as zero, as they do during execution.
func disassemble(w io.Writer, code []byte) error {
	reader := vm.NewCodeReader(code)
	for !reader.Done() {
		pc := reader.Position()
		op := reader.ReadOp()
		var err error
		if n := op.PushBytes(); n > 0 {
			arg := reader.Read(n)
			_, err = fmt.Fprintf(w, "%05d: %v %s\n", pc, op, formatImmediate(&arg, n))
		} else {
			_, err = fmt.Fprintf(w, "%05d: %v\n", pc, op)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func formatImmediate(arg *uint256.Int, n int) string {
	b := arg.Bytes32()
	return hexutil.Encode(b[32-n:])
}

func asmCmd(ctx *cli.Context) error {
	if !ctx.Args().Present() {
		return errors.New("no instructions given")
	}
	code, err := assemble(strings.Join(ctx.Args().Slice(), " "))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(ctx.App.Writer, hexutil.Encode(code))
	return err
}

// assemble turns mnemonics into bytecode.
func assemble(src string) ([]byte, error) {
	var (
		code   []byte
		fields = strings.Fields(src)
	)
	for i := 0; i < len(fields); i++ {
		op, ok := vm.StringToOp(strings.ToUpper(fields[i]))
		if !ok {
			return nil, fmt.Errorf("unknown instruction %q", fields[i])
		}
		code = append(code, byte(op))
		n := op.PushBytes()
		if n == 0 {
			continue
		}
		if i+1 == len(fields) {
			return nil, fmt.Errorf("%v without immediate", op)
		}
		i++
		arg, err := parseWord(fields[i])
		if err != nil {
			return nil, fmt.Errorf("invalid immediate %q: %w", fields[i], err)
		}
		if arg.ByteLen() > n {
			return nil, fmt.Errorf("immediate %q does not fit %v", fields[i], op)
		}
		b := arg.Bytes32()
		code = append(code, b[32-n:]...)
	}
	return code, nil
}
