package resolver

import "strings"

// Category codes as they appear in attribute names.
const (
	CodeAuthentication       = "AUTH"
	CodeAssertionMethod      = "ASSR"
	CodeKeyAgreement         = "KEYA"
	CodeCapabilityInvocation = "CAPI"
	CodeCapabilityDelegation = "CAPD"
	CodeService              = "SERV"
)

// Encoding selects the value field of a verification method.
type Encoding string

const (
	EncodingPublicKeyMultibase  Encoding = "publicKeyMultibase"
	EncodingBlockchainAccountID Encoding = "blockchainAccountId"
)

var categoryLabels = map[string]string{
	CodeAuthentication:       "authentication",
	CodeAssertionMethod:      "assertionMethod",
	CodeKeyAgreement:         "keyAgreement",
	CodeCapabilityInvocation: "capabilityInvocation",
	CodeCapabilityDelegation: "capabilityDelegation",
	CodeService:              "service",
}

var methodLabels = map[string]string{
	"ED19_VR18": "Ed25519VerificationKey2018",
	"ECK1_VR19": "EcdsaSecp256k1VerificationKey2019",
	"ECK1_RM20": "EcdsaSecp256k1RecoveryMethod2020",
	"PGPK_VR21": "PgpVerificationKey2021",
}

var encodingLabels = map[string]Encoding{
	"PUBM": EncodingPublicKeyMultibase,
	"BCAC": EncodingBlockchainAccountID,
}

// Classification is a recognized attribute name. For services Method holds
// the free-form service type and Encoding is empty.
type Classification struct {
	Category     string
	CategoryCode string
	Method       string
	Encoding     Encoding
}

// IsService reports whether the attribute targets the service list.
func (c Classification) IsService() bool {
	return c.CategoryCode == CodeService
}

// Classify parses a comma-joined attribute name such as "AUTH,ECK1_VR19,PUBM"
// or "SERV,LinkedDomains". Unknown or malformed names return ok == false.
func Classify(name string) (Classification, bool) {
	segments := strings.Split(name, ",")
	code := segments[0]
	category, ok := categoryLabels[code]
	if !ok {
		return Classification{}, false
	}
	if code == CodeService {
		if len(segments) != 2 {
			return Classification{}, false
		}
		return Classification{Category: category, CategoryCode: code, Method: segments[1]}, true
	}
	if len(segments) != 3 {
		return Classification{}, false
	}
	method, ok := methodLabels[segments[1]]
	if !ok {
		return Classification{}, false
	}
	encoding, ok := encodingLabels[segments[2]]
	if !ok {
		return Classification{}, false
	}
	return Classification{Category: category, CategoryCode: code, Method: method, Encoding: encoding}, true
}
