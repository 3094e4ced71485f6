package resolver_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"sdi-resolver/internal/resolver"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want resolver.Classification
		ok   bool
	}{
		{
			name: "verification key",
			in:   "AUTH,ECK1_VR19,PUBM",
			want: resolver.Classification{Category: "authentication", CategoryCode: "AUTH", Method: "EcdsaSecp256k1VerificationKey2019", Encoding: resolver.EncodingPublicKeyMultibase},
			ok:   true,
		},
		{
			name: "account id",
			in:   "CAPD,ECK1_RM20,BCAC",
			want: resolver.Classification{Category: "capabilityDelegation", CategoryCode: "CAPD", Method: "EcdsaSecp256k1RecoveryMethod2020", Encoding: resolver.EncodingBlockchainAccountID},
			ok:   true,
		},
		{
			name: "service keeps free-form type",
			in:   "SERV,LinkedDomains",
			want: resolver.Classification{Category: "service", CategoryCode: "SERV", Method: "LinkedDomains"},
			ok:   true,
		},
		{name: "service with three segments", in: "SERV,LinkedDomains,PUBM"},
		{name: "key with two segments", in: "KEYA,ED19_VR18"},
		{name: "unknown category", in: "XXXX,ED19_VR18,PUBM"},
		{name: "unknown method", in: "KEYA,ED25_VR99,PUBM"},
		{name: "unknown encoding", in: "CAPI,PGPK_VR21,BASE"},
		{name: "empty", in: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := resolver.Classify(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
