package main

import (
	"github.com/onomyprotocol/deep-space/dsutils"
	"github.com/onomyprotocol/deep-space/txwire"
)

// The types below render a transaction as JSON with every byte string in
// hex.

type msgJSON struct {
	TypeURL string `json:"type_url"`
	Value   string `json:"value"`
}

type signerInfoJSON struct {
	PubKey   string `json:"pubkey,omitempty"`
	Mode     int32  `json:"mode"`
	Sequence uint64 `json:"sequence"`
}

type feeJSON struct {
	Amount   []string `json:"amount"`
	GasLimit uint64   `json:"gas_limit"`
	Payer    string   `json:"payer,omitempty"`
	Granter  string   `json:"granter,omitempty"`
}

type txJSON struct {
	Messages      []msgJSON        `json:"messages"`
	Memo          string           `json:"memo"`
	TimeoutHeight uint64           `json:"timeout_height"`
	SignerInfos   []signerInfoJSON `json:"signer_infos"`
	Fee           *feeJSON         `json:"fee,omitempty"`
	Signatures    []string         `json:"signatures"`
}

func newTxJSON(tx *txwire.Tx) *txJSON {
	resp := &txJSON{
		Messages:    []msgJSON{},
		SignerInfos: []signerInfoJSON{},
		Signatures:  make([]string, 0, len(tx.Signatures)),
	}

	if tx.Body != nil {
		for _, msg := range tx.Body.Messages {
			resp.Messages = append(resp.Messages, msgJSON{
				TypeURL: msg.TypeURL,
				Value:   dsutils.BytesToHex(msg.Value),
			})
		}
		resp.Memo = tx.Body.Memo
		resp.TimeoutHeight = tx.Body.TimeoutHeight
	}

	if tx.AuthInfo != nil {
		for _, info := range tx.AuthInfo.SignerInfos {
			infoResp := signerInfoJSON{Sequence: info.Sequence}
			if info.PublicKey != nil {
				infoResp.PubKey = dsutils.BytesToHex(
					info.PublicKey.Value,
				)
			}
			if info.ModeInfo != nil {
				infoResp.Mode = info.ModeInfo.Single
			}
			resp.SignerInfos = append(resp.SignerInfos, infoResp)
		}

		if fee := tx.AuthInfo.Fee; fee != nil {
			resp.Fee = &feeJSON{
				Amount:   make([]string, 0, len(fee.Amount)),
				GasLimit: fee.GasLimit,
				Payer:    fee.Payer,
				Granter:  fee.Granter,
			}
			for _, coin := range fee.Amount {
				resp.Fee.Amount = append(
					resp.Fee.Amount, coin.String(),
				)
			}
		}
	}

	for _, sig := range tx.Signatures {
		resp.Signatures = append(resp.Signatures, dsutils.BytesToHex(sig))
	}

	return resp
}
