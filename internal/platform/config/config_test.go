package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{
		"LEDGER_PROVIDERS", "WEB3_PROVIDER_MAINNET", "SMART_CONTRACT_ADDRESS_MAINNET",
		"WEB3_PROVIDER_TESTNET", "SMART_CONTRACT_ADDRESS_TESTNET", "DEFAULT_CHAIN_ID",
		"CHAIN_ID_MAINNET", "CHAIN_ID_TESTNET", "CACHE_BACKEND", "KAFKA_BROKERS", "RESOLVER_ADDR",
		"CACHE_TTL", "LEDGER_CALL_TIMEOUT", "IPFS_GATEWAY", "KAFKA_AUDIT_TOPIC",
	} {
		t.Setenv(key, "")
	}

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Empty(t, cfg.Ledger.Providers)
	assert.Equal(t, uint64(56), cfg.Ledger.DefaultChainID)
	assert.Equal(t, uint64(97), cfg.Ledger.NetworkAliases["testnet"])
	assert.Equal(t, 10*time.Second, cfg.Ledger.CallTimeout)
	assert.Equal(t, CacheBackendMemory, cfg.Cache.Backend)
	assert.Zero(t, cfg.Cache.TTL)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, "did.resolutions", cfg.Kafka.AuditTopic)
	assert.Equal(t, "https://myntfsid.mypinata.cloud/ipfs/", cfg.IPFSGateway)
}

func TestFromEnvProviders(t *testing.T) {
	t.Setenv("LEDGER_PROVIDERS", "https://bsc.example|0x1111111111111111111111111111111111111111, https://testnet.example|0x2222222222222222222222222222222222222222")
	t.Setenv("WEB3_PROVIDER_MAINNET", "https://bsc.example")
	t.Setenv("SMART_CONTRACT_ADDRESS_MAINNET", "0x1111111111111111111111111111111111111111")
	t.Setenv("WEB3_PROVIDER_TESTNET", "https://legacy.example")
	t.Setenv("SMART_CONTRACT_ADDRESS_TESTNET", "0x3333333333333333333333333333333333333333")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("CACHE_BACKEND", "Redis")

	cfg, err := FromEnv()
	require.NoError(t, err)

	require.Len(t, cfg.Ledger.Providers, 3, "duplicate legacy mainnet entry is folded")
	assert.Equal(t, "https://testnet.example", cfg.Ledger.Providers[1].RPCURL)
	assert.Equal(t, "https://legacy.example", cfg.Ledger.Providers[2].RPCURL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, CacheBackendRedis, cfg.Cache.Backend)
}

func TestFromEnvRejectsMalformedValues(t *testing.T) {
	t.Run("provider without contract", func(t *testing.T) {
		t.Setenv("LEDGER_PROVIDERS", "https://bsc.example")
		_, err := FromEnv()
		assert.ErrorContains(t, err, "LEDGER_PROVIDERS")
	})
	t.Run("non numeric chain id", func(t *testing.T) {
		t.Setenv("LEDGER_PROVIDERS", "")
		t.Setenv("DEFAULT_CHAIN_ID", "bsc")
		_, err := FromEnv()
		assert.ErrorContains(t, err, "DEFAULT_CHAIN_ID")
	})
	t.Run("unknown cache backend", func(t *testing.T) {
		t.Setenv("LEDGER_PROVIDERS", "")
		t.Setenv("DEFAULT_CHAIN_ID", "")
		t.Setenv("CACHE_BACKEND", "mongo")
		_, err := FromEnv()
		assert.ErrorContains(t, err, "CACHE_BACKEND")
	})
}
