// Package did parses registry DIDs and models the resolved DID Document.
package did

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/multiformats/go-multibase"
)

const (
	// Scheme and Method are rendered lowercase in canonical DIDs.
	Scheme = "did"
	Method = "sdi"

	prefix = Scheme + ":" + Method + ":"
)

var (
	hexValuePattern = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)
	// secp256k1-pub multicodec varint
	secp256k1PubCodec = []byte{0xe7, 0x01}
)

// MalformedIdentifierError reports a DID that fails its syntax check or whose
// value cannot be decoded to an address.
type MalformedIdentifierError struct {
	Input  string
	Reason string
}

func (e *MalformedIdentifierError) Error() string {
	return fmt.Sprintf("malformed identifier %q: %s", e.Input, e.Reason)
}

// Identifier is a parsed DID together with the account it designates.
type Identifier struct {
	value   string
	address common.Address
}

// Parse validates raw and derives its account address. Scheme and method are
// case-insensitive; the value is either a 0x-prefixed hex address or a
// multibase-encoded compressed secp256k1 public key.
func Parse(raw string) (Identifier, error) {
	parts := strings.SplitN(strings.TrimSpace(raw), ":", 3)
	if len(parts) != 3 {
		return Identifier{}, &MalformedIdentifierError{Input: raw, Reason: "expected <scheme>:<method>:<value>"}
	}
	if !strings.EqualFold(parts[0], Scheme) || !strings.EqualFold(parts[1], Method) {
		return Identifier{}, &MalformedIdentifierError{Input: raw, Reason: "unsupported scheme or method"}
	}
	value := parts[2]
	if strings.HasPrefix(value, "0x") || strings.HasPrefix(value, "0X") {
		if !hexValuePattern.MatchString(value) {
			return Identifier{}, &MalformedIdentifierError{Input: raw, Reason: "hex value must be 20 bytes"}
		}
		addr := common.HexToAddress(value)
		return Identifier{value: addr.Hex(), address: addr}, nil
	}
	addr, err := AddressFromMultibaseKey(value)
	if err != nil {
		return Identifier{}, &MalformedIdentifierError{Input: raw, Reason: err.Error()}
	}
	return Identifier{value: value, address: addr}, nil
}

// FromAddress builds the canonical identifier of an account.
func FromAddress(addr common.Address) Identifier {
	return Identifier{value: addr.Hex(), address: addr}
}

// Address is the 20-byte account the DID designates.
func (id Identifier) Address() common.Address {
	return id.address
}

// String renders the canonical DID.
func (id Identifier) String() string {
	return prefix + id.value
}

// AddressFromMultibaseKey decodes a multibase compressed public key, decompresses
// it and takes the last 20 bytes of the Keccak-256 of the uncompressed point.
func AddressFromMultibaseKey(value string) (common.Address, error) {
	_, raw, err := multibase.Decode(value)
	if err != nil {
		return common.Address{}, fmt.Errorf("multibase decode: %w", err)
	}
	if len(raw) == btcec.PubKeyBytesLenCompressed+len(secp256k1PubCodec) && bytes.HasPrefix(raw, secp256k1PubCodec) {
		raw = raw[len(secp256k1PubCodec):]
	}
	if len(raw) != btcec.PubKeyBytesLenCompressed {
		return common.Address{}, fmt.Errorf("expected %d-byte compressed key, got %d bytes", btcec.PubKeyBytesLenCompressed, len(raw))
	}
	pub, err := btcec.ParsePubKey(raw)
	if err != nil {
		return common.Address{}, fmt.Errorf("parse public key: %w", err)
	}
	uncompressed := pub.SerializeUncompressed()
	hash := crypto.Keccak256(uncompressed[1:])
	return common.BytesToAddress(hash[len(hash)-common.AddressLength:]), nil
}

// FormatAccount renders an arbitrary account as a DID.
func FormatAccount(addr common.Address) string {
	return prefix + addr.Hex()
}
