package lottery

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/params"
)

// Ether converts a whole or fractional ether value to wei, e.g. Ether("0.02")
func Ether(value string) *big.Int {
	wei, err := ParseAmount(value + "ether")
	if err != nil {
		panic(err)
	}
	return wei
}

// ParseAmount parses a wei integer ("20000000000000000") or an ether
// decimal with suffix ("0.02ether")
func ParseAmount(s string) (*big.Int, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return nil, fmt.Errorf("empty amount")
	}

	if strings.HasSuffix(s, "ether") {
		r, ok := new(big.Rat).SetString(strings.TrimSpace(strings.TrimSuffix(s, "ether")))
		if !ok {
			return nil, fmt.Errorf("invalid ether amount: %q", s)
		}
		r.Mul(r, new(big.Rat).SetInt(big.NewInt(params.Ether)))
		if !r.IsInt() {
			return nil, fmt.Errorf("amount %q has more precision than 1 wei", s)
		}
		if r.Sign() < 0 {
			return nil, fmt.Errorf("amount must not be negative: %q", s)
		}
		return new(big.Int).Set(r.Num()), nil
	}

	wei, ok := new(big.Int).SetString(strings.TrimSuffix(s, "wei"), 10)
	if !ok {
		return nil, fmt.Errorf("invalid wei amount: %q", s)
	}
	if wei.Sign() < 0 {
		return nil, fmt.Errorf("amount must not be negative: %q", s)
	}
	return wei, nil
}

// FormatEther renders wei as a decimal ether string
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	r := new(big.Rat).SetFrac(wei, big.NewInt(params.Ether))
	s := r.FloatString(18)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
