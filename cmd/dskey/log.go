package main

import (
	"fmt"
	"os"

	"github.com/btcsuite/btclog/v2"
	"github.com/onomyprotocol/deep-space/keychain"
	"github.com/onomyprotocol/deep-space/keys"
	"github.com/onomyprotocol/deep-space/txbuilder"
)

// subsystemLoggers maps each subsystem tag to the function that installs its
// logger.
var subsystemLoggers = map[string]func(btclog.Logger){
	keychain.Subsystem:  keychain.UseLogger,
	keys.Subsystem:      keys.UseLogger,
	txbuilder.Subsystem: txbuilder.UseLogger,
}

// setupLoggers writes the logs of every subsystem to stderr at the given
// level. Stdout is reserved for command output.
func setupLoggers(level string) error {
	logLevel, ok := btclog.LevelFromString(level)
	if !ok {
		return fmt.Errorf("invalid debug level %q", level)
	}

	rootLogger := btclog.NewSLogger(btclog.NewDefaultHandler(os.Stderr))
	for subsystem, useLogger := range subsystemLoggers {
		logger := rootLogger.SubSystem(subsystem)
		logger.SetLevel(logLevel)
		useLogger(logger)
	}

	return nil
}
