package resolver

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/multiformats/go-multibase"

	"sdi-resolver/internal/did"
)

const (
	// DefaultIPFSGateway prefixes the CID of the default profile service.
	DefaultIPFSGateway = "https://myntfsid.mypinata.cloud/ipfs/"

	defaultAssertionType = "EcdsaSecp256k1RecoveryMethod2020"
	defaultAuthType      = "EcdsaSecp256k1VerificationKey2019"
	defaultServiceType   = "Public Profile"
)

// BuildInput is everything the document is derived from.
type BuildInput struct {
	Identity          common.Address
	DID               string
	Controller        string
	ChainID           uint64
	ServiceHash       [32]byte
	AuthenticationKey []byte
	// PublishesProfile is true when the identity holds the issuer or verifier role.
	PublishesProfile bool
	Events           []ChangeEvent
}

// Builder replays chronological change events into a DID Document.
type Builder struct {
	gateway string
}

func NewBuilder(ipfsGateway string) *Builder {
	if ipfsGateway == "" {
		ipfsGateway = DefaultIPFSGateway
	}
	return &Builder{gateway: ipfsGateway}
}

type documentState struct {
	in       BuildInput
	counters map[string]int
	doc      *did.Document
}

func (s *documentState) nextID(code string) string {
	s.counters[code]++
	return fmt.Sprintf("%s#%s_%d", s.in.DID, code, s.counters[code])
}

// Build is pure: identical inputs yield identical documents.
func (b *Builder) Build(in BuildInput) *did.Document {
	s := &documentState{
		in:       in,
		counters: make(map[string]int, len(categoryLabels)),
		doc: &did.Document{
			Context:    did.Contexts,
			ID:         in.DID,
			Controller: in.Controller,
		},
	}

	s.doc.AssertionMethod = append(s.doc.AssertionMethod, did.VerificationMethod{
		ID:                  s.nextID(CodeAssertionMethod),
		Type:                defaultAssertionType,
		Controller:          in.Controller,
		BlockchainAccountID: accountID(in.ChainID, in.Identity.Bytes()),
	})
	if len(in.AuthenticationKey) > 0 {
		s.doc.Authentication = append(s.doc.Authentication, did.VerificationMethod{
			ID:                 s.nextID(CodeAuthentication),
			Type:               defaultAuthType,
			Controller:         in.Controller,
			PublicKeyMultibase: multibaseKey(in.AuthenticationKey),
		})
	}
	if in.ServiceHash != [32]byte{} && in.PublishesProfile {
		s.doc.Service = []did.Service{{
			ID:              s.nextID(CodeService),
			Type:            defaultServiceType,
			ServiceEndpoint: b.gateway + CIDv0(in.ServiceHash),
		}}
	}

	for _, event := range in.Events {
		class, ok := Classify(event.Name)
		if !ok {
			continue
		}
		id := s.nextID(class.CategoryCode)
		if event.Expired {
			continue
		}
		if class.IsService() {
			s.doc.Service = []did.Service{{
				ID:              id,
				Type:            class.Method,
				ServiceEndpoint: string(event.Value),
			}}
			continue
		}
		vm := did.VerificationMethod{ID: id, Type: class.Method, Controller: in.Controller}
		switch class.Encoding {
		case EncodingPublicKeyMultibase:
			vm.PublicKeyMultibase = multibaseKey(event.Value)
		case EncodingBlockchainAccountID:
			vm.BlockchainAccountID = accountID(in.ChainID, event.Value)
		}
		s.appendMethod(class.CategoryCode, vm)
	}
	return s.doc
}

func (s *documentState) appendMethod(code string, vm did.VerificationMethod) {
	switch code {
	case CodeAuthentication:
		s.doc.Authentication = append(s.doc.Authentication, vm)
	case CodeAssertionMethod:
		s.doc.AssertionMethod = append(s.doc.AssertionMethod, vm)
	case CodeKeyAgreement:
		s.doc.KeyAgreement = append(s.doc.KeyAgreement, vm)
	case CodeCapabilityInvocation:
		s.doc.CapabilityInvocation = append(s.doc.CapabilityInvocation, vm)
	case CodeCapabilityDelegation:
		s.doc.CapabilityDelegation = append(s.doc.CapabilityDelegation, vm)
	}
}

// CIDv0 renders a sha2-256 digest as a base58 CIDv0 string.
func CIDv0(digest [32]byte) string {
	return base58.Encode(append([]byte{0x12, 0x20}, digest[:]...))
}

func multibaseKey(raw []byte) string {
	// Encode only fails for unknown encodings.
	encoded, _ := multibase.Encode(multibase.Base58BTC, raw)
	return encoded
}

func accountID(chainID uint64, value []byte) string {
	account := hexutil.Encode(value)
	if len(value) == common.AddressLength {
		account = common.BytesToAddress(value).Hex()
	}
	return fmt.Sprintf("eip155:%d:%s", chainID, account)
}
