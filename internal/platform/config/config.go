package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr      string
	LogLevel  string
	LogFormat string
	Ledger    LedgerConfig
	Cache     CacheConfig
	Kafka     KafkaConfig
	// IPFSGateway prefixes the CIDv0 of the default issuer/verifier service endpoint.
	IPFSGateway string
}

// Provider is one ledger endpoint paired with the registry contract deployed on it.
type Provider struct {
	RPCURL          string
	ContractAddress string
}

// LedgerConfig describes the configured networks.
type LedgerConfig struct {
	Providers        []Provider
	DefaultChainID   uint64
	NetworkAliases   map[string]uint64
	CallTimeout      time.Duration
	BootstrapTimeout time.Duration
}

// CacheBackend selects the resolution cache store.
type CacheBackend string

const (
	CacheBackendMemory   CacheBackend = "memory"
	CacheBackendPostgres CacheBackend = "postgres"
	CacheBackendRedis    CacheBackend = "redis"
)

// CacheConfig selects and configures the resolution cache store.
type CacheConfig struct {
	Backend     CacheBackend
	DatabaseURL string
	Redis       RedisConfig
	// TTL bounds how long an entry may be served; zero keeps entries until overwritten.
	TTL time.Duration
}

// RedisConfig holds go-redis connection settings.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig enables the resolution audit stream when Brokers is non-empty.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

const (
	defaultAddr        = ":8080"
	defaultChainID     = 56
	defaultTestChainID = 97
	defaultIPFSGateway = "https://myntfsid.mypinata.cloud/ipfs/"
	defaultAuditTopic  = "did.resolutions"
)

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	providers, err := parseProviders(os.Getenv("LEDGER_PROVIDERS"))
	if err != nil {
		return Server{}, err
	}
	// Legacy two-network variables are still honoured.
	providers = appendLegacyProvider(providers, os.Getenv("WEB3_PROVIDER_MAINNET"), os.Getenv("SMART_CONTRACT_ADDRESS_MAINNET"))
	providers = appendLegacyProvider(providers, os.Getenv("WEB3_PROVIDER_TESTNET"), os.Getenv("SMART_CONTRACT_ADDRESS_TESTNET"))

	mainnet, err := envUint("CHAIN_ID_MAINNET", defaultChainID)
	if err != nil {
		return Server{}, err
	}
	testnet, err := envUint("CHAIN_ID_TESTNET", defaultTestChainID)
	if err != nil {
		return Server{}, err
	}
	defaultChain, err := envUint("DEFAULT_CHAIN_ID", mainnet)
	if err != nil {
		return Server{}, err
	}
	callTimeout, err := envDuration("LEDGER_CALL_TIMEOUT", 10*time.Second)
	if err != nil {
		return Server{}, err
	}
	bootstrapTimeout, err := envDuration("BOOTSTRAP_TIMEOUT", 30*time.Second)
	if err != nil {
		return Server{}, err
	}
	cacheTTL, err := envDuration("CACHE_TTL", 0)
	if err != nil {
		return Server{}, err
	}
	redisCfg, err := redisFromEnv()
	if err != nil {
		return Server{}, err
	}

	backend := CacheBackend(strings.ToLower(envString("CACHE_BACKEND", string(CacheBackendMemory))))
	switch backend {
	case CacheBackendMemory, CacheBackendPostgres, CacheBackendRedis:
	default:
		return Server{}, fmt.Errorf("CACHE_BACKEND: unknown backend %q", backend)
	}

	return Server{
		Addr:      envString("RESOLVER_ADDR", defaultAddr),
		LogLevel:  envString("LOG_LEVEL", "info"),
		LogFormat: envString("LOG_FORMAT", "json"),
		Ledger: LedgerConfig{
			Providers:      providers,
			DefaultChainID: defaultChain,
			NetworkAliases: map[string]uint64{
				"mainnet": mainnet,
				"testnet": testnet,
			},
			CallTimeout:      callTimeout,
			BootstrapTimeout: bootstrapTimeout,
		},
		Cache: CacheConfig{
			Backend:     backend,
			DatabaseURL: os.Getenv("DATABASE_URL"),
			Redis:       redisCfg,
			TTL:         cacheTTL,
		},
		Kafka: KafkaConfig{
			Brokers:    splitList(os.Getenv("KAFKA_BROKERS")),
			AuditTopic: envString("KAFKA_AUDIT_TOPIC", defaultAuditTopic),
		},
		IPFSGateway: envString("IPFS_GATEWAY", defaultIPFSGateway),
	}, nil
}

// parseProviders reads "rpcURL|contract,rpcURL|contract".
func parseProviders(raw string) ([]Provider, error) {
	var out []Provider
	for _, item := range splitList(raw) {
		rpcURL, contract, ok := strings.Cut(item, "|")
		rpcURL, contract = strings.TrimSpace(rpcURL), strings.TrimSpace(contract)
		if !ok || rpcURL == "" || contract == "" {
			return nil, fmt.Errorf("LEDGER_PROVIDERS: entry %q must be rpcURL|contractAddress", item)
		}
		out = append(out, Provider{RPCURL: rpcURL, ContractAddress: contract})
	}
	return out, nil
}

func appendLegacyProvider(providers []Provider, rpcURL, contract string) []Provider {
	if rpcURL == "" || contract == "" {
		return providers
	}
	for _, p := range providers {
		if p.RPCURL == rpcURL && strings.EqualFold(p.ContractAddress, contract) {
			return providers
		}
	}
	return append(providers, Provider{RPCURL: rpcURL, ContractAddress: contract})
}

func redisFromEnv() (RedisConfig, error) {
	poolSize, err := envInt("REDIS_POOL_SIZE", 10)
	if err != nil {
		return RedisConfig{}, err
	}
	minIdle, err := envInt("REDIS_MIN_IDLE_CONNS", 2)
	if err != nil {
		return RedisConfig{}, err
	}
	dial, err := envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second)
	if err != nil {
		return RedisConfig{}, err
	}
	read, err := envDuration("REDIS_READ_TIMEOUT", 3*time.Second)
	if err != nil {
		return RedisConfig{}, err
	}
	write, err := envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second)
	if err != nil {
		return RedisConfig{}, err
	}
	return RedisConfig{
		URL:          os.Getenv("REDIS_URL"),
		PoolSize:     poolSize,
		MinIdleConns: minIdle,
		DialTimeout:  dial,
		ReadTimeout:  read,
		WriteTimeout: write,
	}, nil
}

func envString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envUint(key string, fallback uint64) (uint64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func envInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
