package did

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDID = "did:sdi:0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

func TestDocumentOmitsEmptyCategories(t *testing.T) {
	doc := Document{
		Context:    Contexts,
		ID:         testDID,
		Controller: testDID,
		AssertionMethod: []VerificationMethod{{
			ID:                  testDID + "#ASSR_1",
			Type:                "EcdsaSecp256k1RecoveryMethod2020",
			Controller:          testDID,
			BlockchainAccountID: "eip155:56:0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		}},
		KeyAgreement: []VerificationMethod{},
	}

	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	var generic map[string]any
	require.NoError(t, json.Unmarshal(raw, &generic))
	assert.Contains(t, generic, "@context")
	assert.Contains(t, generic, "assertionMethod")
	for _, absent := range []string{"authentication", "keyAgreement", "capabilityInvocation", "capabilityDelegation", "service"} {
		assert.NotContains(t, generic, absent)
	}
	vm := generic["assertionMethod"].([]any)[0].(map[string]any)
	assert.NotContains(t, vm, "publicKeyMultibase")
}

func TestFragment(t *testing.T) {
	doc := Document{
		ID: testDID,
		Authentication: []VerificationMethod{{
			ID:                 testDID + "#AUTH_1",
			Type:               "EcdsaSecp256k1VerificationKey2019",
			PublicKeyMultibase: "zabc",
		}},
		Service: []Service{{
			ID:              testDID + "#SERV_3",
			Type:            "LinkedDomains",
			ServiceEndpoint: "https://example.org",
		}},
	}

	got, ok := doc.Fragment("AUTH_1")
	require.True(t, ok)
	assert.Equal(t, doc.Authentication[0], got)

	got, ok = doc.Fragment("#SERV_3")
	require.True(t, ok)
	assert.Equal(t, doc.Service[0], got)

	got, ok = doc.Fragment("KEYA_1")
	assert.False(t, ok)
	assert.Equal(t, Placeholder{ID: testDID + "#KEYA_1"}, got)
}
