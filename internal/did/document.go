package did

import "strings"

// Contexts is the JSON-LD context every document carries.
var Contexts = []string{
	"https://www.w3.org/ns/did/v1",
	"https://w3id.org/security/v1",
}

// VerificationMethod is a key entry. Exactly one of the value fields is set.
type VerificationMethod struct {
	ID                  string `json:"id"`
	Type                string `json:"type"`
	Controller          string `json:"controller,omitempty"`
	PublicKeyMultibase  string `json:"publicKeyMultibase,omitempty"`
	BlockchainAccountID string `json:"blockchainAccountId,omitempty"`
}

// Service is a service endpoint entry.
type Service struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	ServiceEndpoint string `json:"serviceEndpoint"`
}

// Document is the resolved DID Document. Empty categories are omitted.
type Document struct {
	Context              []string             `json:"@context"`
	ID                   string               `json:"id"`
	Controller           string               `json:"controller"`
	Authentication       []VerificationMethod `json:"authentication,omitempty"`
	AssertionMethod      []VerificationMethod `json:"assertionMethod,omitempty"`
	KeyAgreement         []VerificationMethod `json:"keyAgreement,omitempty"`
	CapabilityInvocation []VerificationMethod `json:"capabilityInvocation,omitempty"`
	CapabilityDelegation []VerificationMethod `json:"capabilityDelegation,omitempty"`
	Service              []Service            `json:"service,omitempty"`
}

// Placeholder is returned for a fragment that the document does not contain.
type Placeholder struct {
	ID string `json:"id"`
}

// Fragment looks up "<id>#<tag>" across the verification method and service
// arrays. The second return is false when nothing matched, in which case the
// first return is a Placeholder carrying just the id.
func (d *Document) Fragment(tag string) (any, bool) {
	want := d.ID + "#" + strings.TrimPrefix(tag, "#")
	for _, list := range [][]VerificationMethod{
		d.Authentication,
		d.AssertionMethod,
		d.KeyAgreement,
		d.CapabilityInvocation,
		d.CapabilityDelegation,
	} {
		for _, vm := range list {
			if vm.ID == want {
				return vm, true
			}
		}
	}
	for _, svc := range d.Service {
		if svc.ID == want {
			return svc, true
		}
	}
	return Placeholder{ID: want}, false
}
