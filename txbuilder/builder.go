package txbuilder

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/onomyprotocol/deep-space/dsutils"
	"github.com/onomyprotocol/deep-space/keychain"
	"github.com/onomyprotocol/deep-space/txwire"
)

// ErrNoSigner is returned when a transaction is built without a signer.
var ErrNoSigner = errors.New("no signer provided")

// MessageArgs are the per call signing parameters of a transaction. None of
// them are tracked between calls: the caller fetches the sequence and
// account number from the chain for every transaction it builds.
type MessageArgs struct {
	// Sequence is the signer's account sequence the transaction is valid
	// for.
	Sequence uint64

	// Fee is the fee paid and the gas limit of the transaction.
	Fee txwire.Fee

	// TimeoutHeight is the block height after which the transaction can
	// no longer be included. Zero means no timeout.
	TimeoutHeight uint64

	// ChainID is the chain the signature commits to.
	ChainID string

	// AccountNumber is the on chain account number of the signer.
	AccountNumber uint64
}

// signedParts holds everything the two output forms are made of.
type signedParts struct {
	body          *txwire.TxBody
	bodyBytes     []byte
	authInfo      *txwire.AuthInfo
	authInfoBytes []byte
	signature     []byte
}

// build encodes the body and auth info of a transaction carrying msgs and
// signs the resulting sign doc in SIGN_MODE_DIRECT.
func build(signer keychain.SingleKeyDigestSigner, msgs []txwire.Msg,
	args MessageArgs, memo string) (*signedParts, error) {

	if signer == nil {
		return nil, ErrNoSigner
	}

	pubKey := signer.PubKey()
	if pubKey == nil {
		return nil, ErrNoSigner
	}

	body := &txwire.TxBody{
		Messages:      make([]txwire.Any, 0, len(msgs)),
		Memo:          memo,
		TimeoutHeight: args.TimeoutHeight,
	}
	for _, msg := range msgs {
		body.Messages = append(body.Messages, msg.Any)
	}
	bodyBytes := body.Encode()

	fee := args.Fee
	fee.Amount = append([]txwire.Coin(nil), args.Fee.Amount...)

	key := &txwire.PubKey{Key: pubKey.SerializeCompressed()}
	authInfo := &txwire.AuthInfo{
		SignerInfos: []txwire.SignerInfo{{
			PublicKey: key.ToAny(),
			ModeInfo: &txwire.ModeInfo{
				Single: txwire.SignModeDirect,
			},
			Sequence: args.Sequence,
		}},
		Fee: &fee,
	}
	authInfoBytes := authInfo.Encode()

	signDoc := &txwire.SignDoc{
		BodyBytes:     bodyBytes,
		AuthInfoBytes: authInfoBytes,
		ChainID:       args.ChainID,
		AccountNumber: args.AccountNumber,
	}
	digest := [32]byte(chainhash.HashH(signDoc.Encode()))

	log.Tracef("Signing sign doc %x for chain %v account=%v sequence=%v",
		digest[:], args.ChainID, args.AccountNumber, args.Sequence)

	sig, err := signer.SignDigestCompact(digest)
	if err != nil {
		return nil, fmt.Errorf("unable to sign transaction: %w", err)
	}

	return &signedParts{
		body:          body,
		bodyBytes:     bodyBytes,
		authInfo:      authInfo,
		authInfoBytes: authInfoBytes,
		signature:     sig,
	}, nil
}

// GetSignedTx builds and signs a transaction and returns it in structured
// form, suitable for the simulation endpoint.
func GetSignedTx(signer keychain.SingleKeyDigestSigner, msgs []txwire.Msg,
	args MessageArgs, memo string) (*txwire.Tx, error) {

	parts, err := build(signer, msgs, args, memo)
	if err != nil {
		return nil, err
	}

	tx := &txwire.Tx{
		Body:       parts.body,
		AuthInfo:   parts.authInfo,
		Signatures: [][]byte{parts.signature},
	}

	log.Tracef("Built simulation tx: %v", dsutils.SpewLogClosure(tx))

	return tx, nil
}

// SignStdMsg builds and signs a transaction and returns the encoded TxRaw,
// ready to be broadcast.
func SignStdMsg(signer keychain.SingleKeyDigestSigner, msgs []txwire.Msg,
	args MessageArgs, memo string) ([]byte, error) {

	parts, err := build(signer, msgs, args, memo)
	if err != nil {
		return nil, err
	}

	txRaw := &txwire.TxRaw{
		BodyBytes:     parts.bodyBytes,
		AuthInfoBytes: parts.authInfoBytes,
		Signatures:    [][]byte{parts.signature},
	}
	raw := txRaw.Encode()

	log.Tracef("Built tx %v with %d msg(s): %v",
		dsutils.NewLogClosure(func() string {
			return TxHash(raw)
		}), len(msgs),
		dsutils.NewLogClosure(func() string {
			return dsutils.BytesToHex(raw)
		}))

	return raw, nil
}

// TxHash returns the transaction id of a broadcast blob: the upper case hex
// SHA256 of its bytes, as shown by block explorers.
func TxHash(raw []byte) string {
	hash := chainhash.HashH(raw)

	return fmt.Sprintf("%X", hash[:])
}
