package ledger

import "golang.org/x/crypto/sha3"

// Registry role identifiers are the Keccak-256 of the literal role names.
var (
	IssuerRole   = roleHash("ISSUER_ROLE")
	VerifierRole = roleHash("VERIFIER_ROLE")
)

func roleHash(name string) [32]byte {
	var out [32]byte
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(name))
	h.Sum(out[:0])
	return out
}
