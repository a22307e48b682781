package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"reflect"
	"unicode"

	"github.com/naoina/toml"
)

// evmConfig is the TOML form of the run settings. Flags given on the
// command line override values read from the file.
type evmConfig struct {
	Schedule    string
	Gas         uint64
	Value       string
	GasPrice    string
	Origin      string
	Coinbase    string
	BlockNumber uint64
	Timestamp   uint64
	Difficulty  string
	// JumpDestCacheSize bounds the jump destination cache in bytes.
	JumpDestCacheSize uint64
	// TraceLimit caps the number of steps recorded by --trace. Zero means
	// unlimited.
	TraceLimit int
}

func defaultConfig() evmConfig {
	return evmConfig{
		Schedule:          "eip160",
		Gas:               10_000_000,
		Value:             "0",
		GasPrice:          "0",
		Difficulty:        "0",
		JumpDestCacheSize: 16 * 1024 * 1024,
	}
}

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		var link string
		if unicode.IsUpper(rune(rt.Name()[0])) && rt.PkgPath() != "main" {
			link = fmt.Sprintf(", see https://godoc.org/%s#%s for available fields", rt.PkgPath(), rt.Name())
		}
		return fmt.Errorf("field '%s' is not defined in %s%s", field, rt.String(), link)
	},
}

func loadConfig(file string, cfg *evmConfig) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	// Add file name to errors that have a line number.
	var lineErr *toml.LineError
	if errors.As(err, &lineErr) {
		err = errors.New(file + ", " + err.Error())
	}
	return err
}
