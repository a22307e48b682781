package types

// Log is a record emitted by one of the LOG0..LOG4 instructions.
type Log struct {
	Address Address
	Topics  []Hash
	Data    []byte
}

// MaxTopicsPerLog is the number of topics LOG4 takes.
const MaxTopicsPerLog = 4
