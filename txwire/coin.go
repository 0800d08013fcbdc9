package txwire

import (
	"fmt"
	"math/big"
	"regexp"

	"google.golang.org/protobuf/encoding/protowire"
)

// coinPattern matches an integer amount directly followed by a denom, e.g.
// 50000uatom or 1ibc/27394FB092D2ECCD56123C74F36E4C1F926001CEADA9CA97EA622B25F41E5EB2.
var coinPattern = regexp.MustCompile(
	`^([0-9]+)([a-zA-Z][a-zA-Z0-9/:._-]{2,127})$`,
)

// Coin is an amount of a single denomination.
type Coin struct {
	Denom  string
	Amount *big.Int
}

// NewCoin creates a coin from a uint64 amount.
func NewCoin(denom string, amount uint64) Coin {
	return Coin{
		Denom:  denom,
		Amount: new(big.Int).SetUint64(amount),
	}
}

// ParseCoin parses the "<amount><denom>" notation used by the Cosmos SDK.
func ParseCoin(s string) (Coin, error) {
	m := coinPattern.FindStringSubmatch(s)
	if m == nil {
		return Coin{}, fmt.Errorf("invalid coin %q", s)
	}

	amount, ok := new(big.Int).SetString(m[1], 10)
	if !ok {
		return Coin{}, fmt.Errorf("invalid coin amount %q", m[1])
	}

	return Coin{Denom: m[2], Amount: amount}, nil
}

// String renders the coin in "<amount><denom>" notation.
func (c Coin) String() string {
	return c.amountString() + c.Denom
}

func (c Coin) amountString() string {
	if c.Amount == nil {
		return "0"
	}

	return c.Amount.String()
}

func (c Coin) appendTo(b []byte) []byte {
	b = appendString(b, 1, c.Denom)
	b = appendString(b, 2, c.amountString())

	return b
}

// Fee is the fee paid for a transaction and the gas it may consume.
type Fee struct {
	Amount   []Coin
	GasLimit uint64

	// Payer and Granter are optional bech32 addresses. When set, the fee
	// is paid by the payer or out of a fee grant of the granter.
	Payer   string
	Granter string
}

// Encode returns the canonical protobuf encoding of the fee.
func (f *Fee) Encode() []byte {
	return f.appendTo(nil)
}

func (f *Fee) appendTo(b []byte) []byte {
	for _, c := range f.Amount {
		b = appendMessage(b, 1, c)
	}
	b = appendUint64(b, 2, f.GasLimit)
	b = appendString(b, 3, f.Payer)
	b = appendString(b, 4, f.Granter)

	return b
}

// decodeCoin is the inverse of Coin.appendTo.
func decodeCoin(b []byte) (Coin, error) {
	var (
		c      Coin
		amount []byte
	)
	err := decodeFields(b, func(num protowire.Number, typ protowire.Type,
		b []byte) int {

		switch num {
		case 1:
			var denom []byte
			n := consumeBytesField(typ, b, &denom)
			c.Denom = string(denom)
			return n
		case 2:
			return consumeBytesField(typ, b, &amount)
		default:
			return skipField(num, typ, b)
		}
	})
	if err != nil {
		return Coin{}, ErrorDecodeMessage("coin", err)
	}

	c.Amount = new(big.Int)
	if len(amount) > 0 {
		if _, ok := c.Amount.SetString(string(amount), 10); !ok {
			return Coin{}, fmt.Errorf("invalid coin amount %q",
				amount)
		}
	}

	return c, nil
}
