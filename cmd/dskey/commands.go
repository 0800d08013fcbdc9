package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/cosmos/go-bip39"
	"github.com/onomyprotocol/deep-space/dscfg"
	"github.com/onomyprotocol/deep-space/dsutils"
	"github.com/onomyprotocol/deep-space/keychain"
	"github.com/onomyprotocol/deep-space/keys"
	"github.com/onomyprotocol/deep-space/txbuilder"
	"github.com/onomyprotocol/deep-space/txwire"
	"github.com/urfave/cli"
)

var (
	errMissingKey = errors.New("a private key or seed phrase must be " +
		"given with --key, the DSKEY_KEY environment variable or " +
		"on the terminal")

	errCountTooLarge = fmt.Errorf("at most %d keys can be derived at "+
		"once", keychain.MaxKeyRangeScan)
)

// actionDecorator is used to add additional information and error handling
// to command actions.
func actionDecorator(f func(*cli.Context) error) func(*cli.Context) error {
	return func(c *cli.Context) error {
		if err := f(c); err != nil {
			return fmt.Errorf("%s: %w", c.Command.Name, err)
		}

		return nil
	}
}

func printJSON(resp interface{}) {
	b, err := json.Marshal(resp)
	if err != nil {
		fatal(err)
	}

	var out bytes.Buffer
	_ = json.Indent(&out, b, "", "    ")
	out.WriteString("\n")
	_, _ = out.WriteTo(os.Stdout)
}

var (
	keyFlag = cli.StringFlag{
		Name:   "key",
		EnvVar: "DSKEY_KEY",
		Usage: "The private key as hex, or a seed phrase deriving " +
			"the key at " + keychain.DefaultPath + ". If unset, " +
			"the key is read from the terminal.",
	}

	phraseFlag = cli.StringFlag{
		Name:   "phrase",
		EnvVar: "DSKEY_PHRASE",
		Usage: "The BIP39 seed phrase. If unset, the phrase and " +
			"passphrase are read from the terminal.",
	}

	passphraseFlag = cli.StringFlag{
		Name:   "passphrase",
		EnvVar: "DSKEY_PASSPHRASE",
		Usage:  "The optional BIP39 passphrase.",
	}
)

// readKey returns the private key given with --key, prompting for it when
// the flag is absent.
func readKey(ctx *cli.Context, reader terminalReader) (keys.PrivateKey,
	error) {

	return keyFromInput(ctx.String("key"), reader)
}

func keyFromInput(keyText string, reader terminalReader) (keys.PrivateKey,
	error) {

	if keyText == "" {
		b, err := reader.ReadPassword("Input private key or seed " +
			"phrase: ")
		if err != nil {
			return keys.PrivateKey{}, err
		}
		keyText = string(b)
	}

	keyText = strings.TrimSpace(keyText)
	if keyText == "" {
		return keys.PrivateKey{}, errMissingKey
	}

	return keys.ParsePrivateKey(keyText)
}

// readPhrase returns the seed phrase and passphrase given with --phrase and
// --passphrase, prompting for them when the phrase is absent.
func readPhrase(ctx *cli.Context, reader terminalReader) (string, string,
	error) {

	return phraseFromInput(
		ctx.String("phrase"), ctx.String("passphrase"),
		ctx.IsSet("passphrase"), reader,
	)
}

func phraseFromInput(phrase, passphrase string, havePassphrase bool,
	reader terminalReader) (string, string, error) {

	phrase = strings.TrimSpace(phrase)
	if phrase != "" {
		return phrase, passphrase, nil
	}

	b, err := reader.ReadPassword("Input your seed phrase: ")
	if err != nil {
		return "", "", err
	}

	phrase = strings.TrimSpace(string(b))
	if phrase == "" {
		return "", "", keys.ErrEmptyPhrase
	}

	if !havePassphrase {
		b, err := reader.ReadPassword("Input your BIP39 passphrase " +
			"(optional, press enter to skip): ")
		if err != nil {
			return "", "", err
		}
		passphrase = string(b)
	}

	return phrase, passphrase, nil
}

// newKeyRing creates the key ring of a seed phrase.
func newKeyRing(phrase, passphrase string) (*keychain.SeedKeyRing, error) {
	if phrase == "" {
		return nil, keys.ErrEmptyPhrase
	}

	seed, err := bip39.NewSeedWithErrorChecking(phrase, passphrase)
	if err != nil {
		return nil, err
	}

	return keychain.NewSeedKeyRing(seed, keychain.CoinTypeCosmos), nil
}

type keyInfo struct {
	Path    string `json:"path,omitempty"`
	PubKey  string `json:"pubkey"`
	Hex     string `json:"hex"`
	Address string `json:"address"`
}

func newKeyInfo(pubKey keys.PublicKey) (*keyInfo, error) {
	addr, err := pubKey.ToAddress()
	if err != nil {
		return nil, err
	}

	return &keyInfo{
		PubKey:  pubKey.String(),
		Hex:     dsutils.BytesToHex(pubKey.Bytes()),
		Address: addr.String(),
	}, nil
}

var pubKeyCommand = cli.Command{
	Name:   "pubkey",
	Usage:  "Show the public key and address of a private key.",
	Flags:  []cli.Flag{keyFlag},
	Action: actionDecorator(withTerminal(pubKey)),
}

func pubKey(ctx *cli.Context, reader terminalReader) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	privKey, err := readKey(ctx, reader)
	if err != nil {
		return err
	}

	pub, err := privKey.ToPublicKey(cfg.PubKeyPrefix())
	if err != nil {
		return err
	}

	info, err := newKeyInfo(pub)
	if err != nil {
		return err
	}

	printJSON(info)

	return nil
}

var addressCommand = cli.Command{
	Name:   "address",
	Usage:  "Show the account address of a private key.",
	Flags:  []cli.Flag{keyFlag},
	Action: actionDecorator(withTerminal(showAddress)),
}

func showAddress(ctx *cli.Context, reader terminalReader) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	privKey, err := readKey(ctx, reader)
	if err != nil {
		return err
	}

	addr, err := privKey.ToAddress(cfg.Prefix)
	if err != nil {
		return err
	}

	fmt.Println(addr)

	return nil
}

var deriveCommand = cli.Command{
	Name:  "derive",
	Usage: "Derive keys from a seed phrase.",
	Description: `
	Derive the keys of an account, m/44'/118'/account'/0/index, starting
	at index 0. With --path a single key at an arbitrary path is derived
	instead.
	`,
	Flags: []cli.Flag{
		phraseFlag,
		passphraseFlag,
		cli.UintFlag{
			Name:  "account",
			Usage: "The account to derive keys of.",
		},
		cli.UintFlag{
			Name:  "count",
			Value: 1,
			Usage: "The number of keys to derive, at most " +
				"10000.",
		},
		cli.StringFlag{
			Name:  "path",
			Usage: "Derive the single key at this path.",
		},
	},
	Action: actionDecorator(withTerminal(derive)),
}

func derive(ctx *cli.Context, reader terminalReader) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	phrase, passphrase, err := readPhrase(ctx, reader)
	if err != nil {
		return err
	}

	if ctx.IsSet("path") {
		info, err := deriveAtPath(
			cfg, ctx.String("path"), phrase, passphrase,
		)
		if err != nil {
			return err
		}

		printJSON([]*keyInfo{info})

		return nil
	}

	infos, err := deriveAccount(
		cfg, phrase, passphrase, uint32(ctx.Uint("account")),
		ctx.Uint("count"),
	)
	if err != nil {
		return err
	}

	printJSON(infos)

	return nil
}

func deriveAtPath(cfg *dscfg.Config, path, phrase,
	passphrase string) (*keyInfo, error) {

	privKey, err := keys.PrivateKeyFromHDWalletPath(
		path, phrase, passphrase,
	)
	if err != nil {
		return nil, err
	}

	pub, err := privKey.ToPublicKey(cfg.PubKeyPrefix())
	if err != nil {
		return nil, err
	}

	info, err := newKeyInfo(pub)
	if err != nil {
		return nil, err
	}
	info.Path = path

	return info, nil
}

func deriveAccount(cfg *dscfg.Config, phrase, passphrase string,
	account uint32, count uint) ([]*keyInfo, error) {

	if count > uint(keychain.MaxKeyRangeScan) {
		return nil, fmt.Errorf("%w, got %d", errCountTooLarge, count)
	}

	keyRing, err := newKeyRing(phrase, passphrase)
	if err != nil {
		return nil, err
	}

	infos := make([]*keyInfo, 0, count)
	for i := uint(0); i < count; i++ {
		keyDesc, err := keyRing.DeriveNextKey(account)
		if err != nil {
			return nil, err
		}

		pub, err := keys.PublicKeyFromSlice(
			keyDesc.PubKey.SerializeCompressed(), cfg.PubKeyPrefix(),
		)
		if err != nil {
			return nil, err
		}

		info, err := newKeyInfo(pub)
		if err != nil {
			return nil, err
		}
		info.Path = keyDesc.Path(keychain.CoinTypeCosmos).String()

		infos = append(infos, info)
	}

	return infos, nil
}

var parsePubKeyCommand = cli.Command{
	Name:      "parsepubkey",
	Usage:     "Parse a bech32, hex or base64 public key.",
	ArgsUsage: "pubkey",
	Action:    actionDecorator(parsePubKey),
}

func parsePubKey(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	if ctx.NArg() != 1 {
		return cli.ShowCommandHelp(ctx, "parsepubkey")
	}

	pub, err := keys.ParsePublicKey(ctx.Args().First())
	if err != nil {
		return err
	}

	// Keys without their own label are shown with the configured one.
	if pub.Prefix() == keys.DefaultPrefix {
		if err := pub.ChangePrefix(cfg.PubKeyPrefix()); err != nil {
			return err
		}
	}

	info, err := newKeyInfo(pub)
	if err != nil {
		return err
	}

	printJSON(info)

	return nil
}

var signCommand = cli.Command{
	Name:      "sign",
	Usage:     "Sign a transaction carrying pre-encoded messages.",
	ArgsUsage: "type_url=hex_value [type_url=hex_value...]",
	Description: `
	Sign a transaction in SIGN_MODE_DIRECT and print the hex encoded
	transaction, ready to be broadcast, along with its hash. Every
	argument is one message given as its type URL and its protobuf
	encoding in hex, e.g.

	/cosmos.bank.v1beta1.MsgSend=0a2d636f736d6f73...

	Signing parameters are read from the config file and may be
	overridden with the flags below.

	The signing key is either given with --key, or derived from a seed
	phrase at m/44'/118'/account'/0/index when --phrase, --account or
	--index is set. Secrets that aren't given are read from the terminal.
	`,
	Flags: []cli.Flag{
		keyFlag,
		phraseFlag,
		passphraseFlag,
		cli.UintFlag{
			Name:  "account",
			Usage: "The account of the key derived from --phrase.",
		},
		cli.UintFlag{
			Name:  "index",
			Usage: "The index of the key derived from --phrase.",
		},
		cli.StringFlag{Name: "chainid", Usage: "The chain id."},
		cli.Uint64Flag{
			Name:  "accountnumber",
			Usage: "The account number of the signer.",
		},
		cli.Uint64Flag{
			Name:  "sequence",
			Usage: "The account sequence of the signer.",
		},
		cli.StringFlag{
			Name:  "fee",
			Usage: "The fee to pay, e.g. 500anom.",
		},
		cli.Uint64Flag{
			Name:  "gaslimit",
			Usage: "The gas limit of the transaction.",
		},
		cli.Uint64Flag{
			Name:  "timeoutheight",
			Usage: "The height after which the tx is invalid.",
		},
		cli.StringFlag{Name: "memo", Usage: "The memo to attach."},
		cli.BoolFlag{
			Name: "simulate",
			Usage: "Print the structured transaction used for " +
				"simulation instead of the raw bytes.",
		},
	},
	Action: actionDecorator(withTerminal(sign)),
}

// applySignFlags overrides the config with the flags given on the command
// line.
func applySignFlags(ctx *cli.Context, cfg *dscfg.Config) error {
	if ctx.IsSet("chainid") {
		cfg.ChainID = ctx.String("chainid")
	}
	if ctx.IsSet("accountnumber") {
		cfg.AccountNumber = ctx.Uint64("accountnumber")
	}
	if ctx.IsSet("sequence") {
		cfg.Sequence = ctx.Uint64("sequence")
	}
	if ctx.IsSet("fee") {
		cfg.Fee = ctx.String("fee")
	}
	if ctx.IsSet("gaslimit") {
		cfg.GasLimit = ctx.Uint64("gaslimit")
	}
	if ctx.IsSet("timeoutheight") {
		cfg.TimeoutHeight = ctx.Uint64("timeoutheight")
	}
	if ctx.IsSet("memo") {
		cfg.Memo = ctx.String("memo")
	}

	return cfg.Validate()
}

// parseMsg parses a message given as type_url=hex_value.
func parseMsg(arg string) (txwire.Msg, error) {
	typeURL, value, ok := strings.Cut(arg, "=")
	if !ok || !strings.HasPrefix(typeURL, "/") {
		return txwire.Msg{}, fmt.Errorf("message %q is not of the "+
			"form /type.url=hex", arg)
	}

	b, err := dsutils.HexToBytes(value)
	if err != nil {
		return txwire.Msg{}, err
	}

	return txwire.NewMsg(typeURL, b), nil
}

// readSigner returns the signer of the sign command. Seed phrases given with
// --phrase sign through a key ring, everything else through a bare key.
func readSigner(ctx *cli.Context,
	reader terminalReader) (keychain.SingleKeyDigestSigner, error) {

	useRing := ctx.String("phrase") != "" || ctx.IsSet("account") ||
		ctx.IsSet("index")
	if !useRing {
		privKey, err := readKey(ctx, reader)
		if err != nil {
			return nil, err
		}

		signer, err := privKey.Signer()
		if err != nil {
			return nil, err
		}

		return signer, nil
	}

	phrase, passphrase, err := readPhrase(ctx, reader)
	if err != nil {
		return nil, err
	}

	return ringSigner(phrase, passphrase, keychain.KeyLocator{
		Account: uint32(ctx.Uint("account")),
		Index:   uint32(ctx.Uint("index")),
	})
}

// ringSigner returns a signer for the key at keyLoc that signs through the
// key ring of a seed phrase.
func ringSigner(phrase, passphrase string,
	keyLoc keychain.KeyLocator) (keychain.SingleKeyDigestSigner, error) {

	keyRing, err := newKeyRing(phrase, passphrase)
	if err != nil {
		return nil, err
	}

	keyDesc, err := keyRing.DeriveKey(keyLoc)
	if err != nil {
		return nil, err
	}

	return keychain.NewPubKeyDigestSigner(keyDesc, keyRing), nil
}

func sign(ctx *cli.Context, reader terminalReader) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if err := applySignFlags(ctx, cfg); err != nil {
		return err
	}

	args, err := cfg.MessageArgs()
	if err != nil {
		return err
	}

	signer, err := readSigner(ctx, reader)
	if err != nil {
		return err
	}

	msgs := make([]txwire.Msg, 0, ctx.NArg())
	for _, arg := range ctx.Args() {
		msg, err := parseMsg(arg)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}

	if ctx.Bool("simulate") {
		tx, err := txbuilder.GetSignedTx(signer, msgs, args, cfg.Memo)
		if err != nil {
			return err
		}

		printJSON(newTxJSON(tx))

		return nil
	}

	raw, err := txbuilder.SignStdMsg(signer, msgs, args, cfg.Memo)
	if err != nil {
		return err
	}

	printJSON(struct {
		TxHash string `json:"txhash"`
		Tx     string `json:"tx"`
	}{
		TxHash: txbuilder.TxHash(raw),
		Tx:     dsutils.BytesToHex(raw),
	})

	return nil
}

var decodeTxCommand = cli.Command{
	Name:      "decodetx",
	Usage:     "Decode a hex encoded raw transaction.",
	ArgsUsage: "tx_hex",
	Action:    actionDecorator(decodeTx),
}

func decodeTx(ctx *cli.Context) error {
	if _, err := loadConfig(ctx); err != nil {
		return err
	}

	if ctx.NArg() != 1 {
		return cli.ShowCommandHelp(ctx, "decodetx")
	}

	raw, err := dsutils.HexToBytes(ctx.Args().First())
	if err != nil {
		return err
	}

	tx, err := decodeRawTx(raw)
	if err != nil {
		return err
	}

	printJSON(newTxJSON(tx))

	return nil
}

// decodeRawTx parses a broadcast blob into its structured form.
func decodeRawTx(raw []byte) (*txwire.Tx, error) {
	txRaw, err := txwire.DecodeTxRaw(raw)
	if err != nil {
		return nil, err
	}

	body, err := txwire.DecodeTxBody(txRaw.BodyBytes)
	if err != nil {
		return nil, err
	}

	authInfo, err := txwire.DecodeAuthInfo(txRaw.AuthInfoBytes)
	if err != nil {
		return nil, err
	}

	return &txwire.Tx{
		Body:       body,
		AuthInfo:   authInfo,
		Signatures: txRaw.Signatures,
	}, nil
}
