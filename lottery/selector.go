package lottery

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Entropy carries the values visible to every observer when a winner is picked
type Entropy struct {
	Round     uint64
	Timestamp time.Time
	Caller    common.Address
	Players   []common.Address
}

// Selection is the outcome of a selector run
type Selection struct {
	Index int
	Seed  common.Hash
}

// Selector chooses an index into the current pool
type Selector interface {
	Select(in Entropy) (Selection, error)
}

// KeccakSelector derives the index from a keccak256 hash over public round data.
// Anyone who can observe or influence the inputs before the call can predict the result.
type KeccakSelector struct{}

// NewKeccakSelector creates the default selector
func NewKeccakSelector() KeccakSelector {
	return KeccakSelector{}
}

// Select returns keccak256(round, timestamp, caller, players...) mod len(players)
func (KeccakSelector) Select(in Entropy) (Selection, error) {
	n := len(in.Players)
	if n == 0 {
		return Selection{}, ErrEmptyPool
	}

	seed := crypto.Keccak256Hash(packEntropy(in))
	index := new(big.Int).Mod(seed.Big(), big.NewInt(int64(n)))

	return Selection{Index: int(index.Int64()), Seed: seed}, nil
}

// packEntropy tightly packs the inputs the way abi.encodePacked would
func packEntropy(in Entropy) []byte {
	buf := make([]byte, 0, 16+common.AddressLength*(len(in.Players)+1))
	buf = binary.BigEndian.AppendUint64(buf, in.Round)
	buf = binary.BigEndian.AppendUint64(buf, uint64(in.Timestamp.Unix()))
	buf = append(buf, in.Caller.Bytes()...)
	for _, p := range in.Players {
		buf = append(buf, p.Bytes()...)
	}
	return buf
}

// CryptoSelector draws a 256-bit seed from crypto/rand and ignores the public
// inputs apart from the pool size.
type CryptoSelector struct{}

// NewCryptoSelector creates a selector backed by the operating system CSPRNG
func NewCryptoSelector() CryptoSelector {
	return CryptoSelector{}
}

// Select returns seed mod len(players) for a freshly drawn seed
func (CryptoSelector) Select(in Entropy) (Selection, error) {
	n := len(in.Players)
	if n == 0 {
		return Selection{}, ErrEmptyPool
	}

	var seed common.Hash
	if _, err := rand.Read(seed[:]); err != nil {
		return Selection{}, fmt.Errorf("failed to read random seed: %w", err)
	}

	index := new(big.Int).Mod(seed.Big(), big.NewInt(int64(n)))
	return Selection{Index: int(index.Int64()), Seed: seed}, nil
}

// SelectorByName returns the selector registered under name
func SelectorByName(name string) (Selector, error) {
	switch name {
	case "", "keccak":
		return NewKeccakSelector(), nil
	case "crypto":
		return NewCryptoSelector(), nil
	default:
		return nil, fmt.Errorf("unknown selector: %s", name)
	}
}
