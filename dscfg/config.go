package dscfg

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/btcsuite/btclog/v2"
	flags "github.com/jessevdk/go-flags"
	"github.com/onomyprotocol/deep-space/dsutils"
	"github.com/onomyprotocol/deep-space/txbuilder"
	"github.com/onomyprotocol/deep-space/txwire"
)

const (
	// DefaultConfigFilename is the default configuration file name dskey
	// tries to load.
	DefaultConfigFilename = "dskey.conf"

	// DefaultPrefix is the bech32 prefix of account addresses used when
	// none is configured.
	DefaultPrefix = "cosmos"

	// DefaultGasLimit is the gas limit of signed transactions used when
	// none is configured.
	DefaultGasLimit = 200000

	// DefaultDebugLevel is the log level used when none is configured.
	DefaultDebugLevel = "info"

	// pubKeySuffix turns an address prefix into the matching public key
	// prefix.
	pubKeySuffix = "pub"
)

var (
	// ErrMissingChainID is returned when signing parameters are requested
	// from a config without a chain id.
	ErrMissingChainID = errors.New("chain id must be set to sign")

	// ErrZeroGasLimit is returned when the configured gas limit is zero.
	ErrZeroGasLimit = errors.New("gas limit must be positive")
)

// Config holds the prefixes and signing parameters used by dskey. Every
// field can be set from the config file and overridden on the command line.
type Config struct {
	// Prefix is the bech32 prefix of account addresses. Public keys use
	// the same prefix followed by "pub".
	Prefix string `long:"prefix" description:"Bech32 prefix of account addresses, e.g. cosmos or onomy."`

	// ChainID is the chain signatures commit to.
	ChainID string `long:"chainid" description:"Chain id signatures commit to."`

	// AccountNumber is the on chain account number of the signer.
	AccountNumber uint64 `long:"accountnumber" description:"On chain account number of the signer."`

	// Sequence is the account sequence the transaction is valid for.
	Sequence uint64 `long:"sequence" description:"Account sequence of the signer."`

	// Fee is the fee paid for a transaction in <amount><denom> notation.
	// An empty fee pays nothing.
	Fee string `long:"fee" description:"Fee paid for the transaction, e.g. 500anom."`

	// GasLimit is the maximum gas a transaction may consume.
	GasLimit uint64 `long:"gaslimit" description:"Maximum gas the transaction may consume."`

	// TimeoutHeight is the block height after which a transaction can no
	// longer be included. Zero means no timeout.
	TimeoutHeight uint64 `long:"timeoutheight" description:"Block height after which the transaction is no longer valid, 0 for none."`

	// Memo is attached to every signed transaction.
	Memo string `long:"memo" description:"Memo attached to the transaction."`

	// DebugLevel is the log level of all subsystems.
	DebugLevel string `long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical, off}."`
}

// DefaultConfig returns all default values for the Config struct.
func DefaultConfig() Config {
	return Config{
		Prefix:     DefaultPrefix,
		GasLimit:   DefaultGasLimit,
		DebugLevel: DefaultDebugLevel,
	}
}

// LoadConfig reads the config file at path on top of the defaults and
// validates the result. An empty path returns the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return &cfg, nil
	}

	path = CleanAndExpandPath(path)
	if err := flags.IniParse(path, &cfg); err != nil {
		// Parsing errors are always reported, a missing file only if
		// the caller explicitly asked for it.
		var iniErr *flags.IniError
		if errors.As(err, &iniErr) {
			return nil, err
		}

		return nil, fmt.Errorf("unable to read config file %v: %w",
			path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that the config holds usable values.
func (c *Config) Validate() error {
	if c.Prefix == "" {
		return fmt.Errorf("prefix must be set")
	}
	if _, err := dsutils.NewLabel(c.PubKeyPrefix()); err != nil {
		return fmt.Errorf("invalid prefix %q: %w", c.Prefix, err)
	}

	if c.GasLimit == 0 {
		return ErrZeroGasLimit
	}

	if c.Fee != "" {
		if _, err := txwire.ParseCoin(c.Fee); err != nil {
			return fmt.Errorf("invalid fee: %w", err)
		}
	}

	if _, ok := btclog.LevelFromString(c.DebugLevel); !ok {
		return fmt.Errorf("invalid debug level %q", c.DebugLevel)
	}

	return nil
}

// PubKeyPrefix returns the bech32 prefix of public keys.
func (c *Config) PubKeyPrefix() string {
	return c.Prefix + pubKeySuffix
}

// MessageArgs returns the signing parameters described by the config.
func (c *Config) MessageArgs() (txbuilder.MessageArgs, error) {
	if c.ChainID == "" {
		return txbuilder.MessageArgs{}, ErrMissingChainID
	}

	fee := txwire.Fee{GasLimit: c.GasLimit}
	if c.Fee != "" {
		coin, err := txwire.ParseCoin(c.Fee)
		if err != nil {
			return txbuilder.MessageArgs{}, err
		}
		fee.Amount = []txwire.Coin{coin}
	}

	return txbuilder.MessageArgs{
		Sequence:      c.Sequence,
		Fee:           fee,
		TimeoutHeight: c.TimeoutHeight,
		ChainID:       c.ChainID,
		AccountNumber: c.AccountNumber,
	}, nil
}

// CleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
// This function is taken from https://github.com/btcsuite/btcd
func CleanAndExpandPath(path string) string {
	if path == "" {
		return ""
	}

	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		var homeDir string
		u, err := user.Current()
		if err == nil {
			homeDir = u.HomeDir
		} else {
			homeDir = os.Getenv("HOME")
		}

		path = strings.Replace(path, "~", homeDir, 1)
	}

	return filepath.Clean(os.ExpandEnv(path))
}
