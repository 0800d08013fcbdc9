package main

import (
	"fmt"
	"os"
	"syscall"

	"github.com/onomyprotocol/deep-space/dscfg"
	"github.com/urfave/cli"
	"golang.org/x/term"
)

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "[dskey] %v\n", err)
	os.Exit(1)
}

// loadConfig reads the config file named by the global flags and applies the
// global log level on top of it.
func loadConfig(ctx *cli.Context) (*dscfg.Config, error) {
	cfg, err := dscfg.LoadConfig(ctx.GlobalString("configfile"))
	if err != nil {
		return nil, err
	}

	if ctx.GlobalIsSet("debuglevel") {
		cfg.DebugLevel = ctx.GlobalString("debuglevel")
	}

	if err := setupLoggers(cfg.DebugLevel); err != nil {
		return nil, err
	}

	return cfg, nil
}

func main() {
	app := cli.NewApp()
	app.Name = "dskey"
	app.Usage = "derive Cosmos keys and addresses and sign transactions " +
		"offline"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name: "configfile",
			Usage: "Path to a config file holding the prefix and " +
				"the signing parameters.",
			TakesFile: true,
		},
		cli.StringFlag{
			Name: "debuglevel",
			Usage: "Logging level for all subsystems {trace, " +
				"debug, info, warn, error, critical, off}.",
			Value: dscfg.DefaultDebugLevel,
		},
	}
	app.Commands = []cli.Command{
		pubKeyCommand,
		addressCommand,
		deriveCommand,
		parsePubKeyCommand,
		signCommand,
		decodeTxCommand,
	}

	if err := app.Run(os.Args); err != nil {
		fatal(err)
	}
}

// terminalReader reads secrets from the user without echoing them.
type terminalReader interface {
	ReadPassword(prompt string) ([]byte, error)
}

// stdinTerminal is the terminalReader backed by the controlling TTY.
type stdinTerminal struct{}

// ReadPassword prompts for and reads a secret from the terminal.
func (stdinTerminal) ReadPassword(prompt string) ([]byte, error) {
	return readPassword(prompt)
}

// readPassword reads a password from the terminal. This requires there to be
// an actual TTY so passing in a password from stdin won't work. The prompt
// goes to stderr to keep stdout clean for the JSON output.
func readPassword(text string) ([]byte, error) {
	fmt.Fprint(os.Stderr, text)

	// The variable syscall.Stdin is of a different type in the Windows API
	// that's why we need the explicit cast. And of course the linter
	// doesn't like it either.
	pw, err := term.ReadPassword(int(syscall.Stdin)) // nolint:unconvert
	fmt.Fprintln(os.Stderr)

	return pw, err
}

// withTerminal hands the TTY backed terminalReader to a command action.
func withTerminal(f func(*cli.Context, terminalReader) error) func(
	*cli.Context) error {

	return func(ctx *cli.Context) error {
		return f(ctx, stdinTerminal{})
	}
}
