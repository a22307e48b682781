package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eth2030/meteredvm/core/vm"
)

func runApp(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &errOut
	err := app.Run(append([]string{"evm", "--verbosity", "0"}, args...))
	return out.String(), errOut.String(), err
}

func TestRunReturn(t *testing.T) {
	out, _, err := runApp(t, "run", "--code", "602a60005260206000f3", "--gas", "100000")
	require.NoError(t, err)
	require.Contains(t, out, "output: 0x"+strings.Repeat("00", 31)+"2a\n")
	require.Contains(t, out, "gas used: 18\n")
}

func TestRunCodeArgument(t *testing.T) {
	out, _, err := runApp(t, "run", "0x6001600201")
	require.NoError(t, err)
	require.Contains(t, out, "gas used: 9\n")
}

func TestRunCodeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "code.hex")
	require.NoError(t, os.WriteFile(path, []byte("6001600201\n"), 0o644))
	out, _, err := runApp(t, "run", "--codefile", path)
	require.NoError(t, err)
	require.Contains(t, out, "gas used: 9\n")
}

func TestRunFailure(t *testing.T) {
	out, _, err := runApp(t, "run", "--code", "600101", "--gas", "1000")
	require.ErrorIs(t, err, vm.ErrStackUnderflow)
	require.Contains(t, out, "gas used: 1000\n")
}

func TestRunNoCode(t *testing.T) {
	_, _, err := runApp(t, "run")
	require.ErrorContains(t, err, "no code given")
}

func TestRunValue(t *testing.T) {
	// RETURN(0, 32) of CALLVALUE stored at 0.
	out, _, err := runApp(t, "run", "--code", "3460005260206000f3", "--value", "0x05")
	require.NoError(t, err)
	require.Contains(t, out, "output: 0x"+strings.Repeat("00", 31)+"05\n")
}

func TestRunTrace(t *testing.T) {
	_, trace, err := runApp(t, "run", "--code", "602a60005260206000f3", "--trace")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(trace), "\n")
	require.Len(t, lines, 6)

	var step struct {
		Op        string `json:"op"`
		MemOffset uint64 `json:"memOffset"`
		Memory    string `json:"memory"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &step))
	require.Equal(t, "MSTORE", step.Op)
	require.Equal(t, "0x"+strings.Repeat("00", 31)+"2a", step.Memory)
}

func TestRunDump(t *testing.T) {
	out, _, err := runApp(t, "run", "--code", "6001600055", "--dump")
	require.NoError(t, err)
	start := strings.Index(out, "{")
	require.GreaterOrEqual(t, start, 0)

	var dump struct {
		Accounts map[string]struct {
			Storage map[string]string `json:"storage"`
		} `json:"accounts"`
	}
	require.NoError(t, json.Unmarshal([]byte(out[start:]), &dump))
	acc, ok := dump.Accounts["0x000000000000000000000000636f6e7472616374"]
	require.True(t, ok, "account of the executed code")
	require.Len(t, acc.Storage, 1)
}

func TestRunSchedule(t *testing.T) {
	delegate := "600060006000600060006000f4"
	_, _, err := runApp(t, "run", "--code", delegate, "--schedule", "frontier")
	require.ErrorIs(t, err, vm.ErrBadInstruction)

	_, _, err = runApp(t, "run", "--code", delegate, "--schedule", "homestead")
	require.NoError(t, err)

	_, _, err = runApp(t, "run", "--code", delegate, "--schedule", "byzantium")
	require.ErrorContains(t, err, "unknown schedule")
}

func TestRunConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evm.toml")
	require.NoError(t, os.WriteFile(path, []byte("Schedule = \"frontier\"\nGas = 5\n"), 0o644))

	out, _, err := runApp(t, "run", "--config", path, "--code", "6001600201")
	require.ErrorIs(t, err, vm.ErrOutOfGas)
	require.Contains(t, out, "gas used: 5\n")

	// Flags override the file.
	_, _, err = runApp(t, "run", "--config", path, "--gas", "9", "--code", "6001600201")
	require.NoError(t, err)
}

func TestDisasmCommand(t *testing.T) {
	out, _, err := runApp(t, "disasm", "6001600201")
	require.NoError(t, err)
	require.Equal(t, "00000: PUSH1 0x01\n00002: PUSH1 0x02\n00004: ADD\n", out)
}

func TestAsmCommand(t *testing.T) {
	out, _, err := runApp(t, "asm", "PUSH1", "0x2a", "push1", "0", "MSTORE")
	require.NoError(t, err)
	require.Equal(t, "0x602a600052\n", out)
}

func TestDumpConfig(t *testing.T) {
	out, _, err := runApp(t, "dumpconfig", "--schedule", "frontier", "--gas", "42")
	require.NoError(t, err)
	require.Contains(t, out, `Schedule = "frontier"`)
	require.Contains(t, out, "Gas = 42")

	path := filepath.Join(t.TempDir(), "evm.toml")
	require.NoError(t, os.WriteFile(path, []byte(out), 0o644))
	cfg := defaultConfig()
	require.NoError(t, loadConfig(path, &cfg))
	require.Equal(t, "frontier", cfg.Schedule)
	require.Equal(t, uint64(42), cfg.Gas)
}
