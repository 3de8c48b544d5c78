package cmd

var (
	flagLogLevel string
	flagSeed     uint32
)
