package ledger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/suite"

	"sdi-resolver/internal/platform/config"
)

const testContract = "0x00000000000000000000000000000000000000c0"

type RegistrySuite struct {
	suite.Suite
	logger *slog.Logger
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *RegistrySuite) dialer(chains map[string]int64) Dialer {
	return func(_ context.Context, rpcURL string) (Backend, func(), error) {
		id, ok := chains[rpcURL]
		if !ok {
			return nil, nil, errors.New("dial tcp: connection refused")
		}
		backend := newFakeBackend(s.T())
		backend.chainID = big.NewInt(id)
		return backend, nil, nil
	}
}

func (s *RegistrySuite) TestContextFor() {
	reg, err := NewRegistry(ChainContext{ChainID: 97, Client: &EthClient{chainID: 97}})
	s.Require().NoError(err)

	s.Run("returns the registered chain", func() {
		c, err := reg.ContextFor(97)
		s.Require().NoError(err)
		s.Equal(uint64(97), c.ChainID)
	})

	s.Run("rejects an unknown chain", func() {
		_, err := reg.ContextFor(1)
		var unsupported *UnsupportedChainError
		s.Require().ErrorAs(err, &unsupported)
		s.Equal(uint64(1), unsupported.ChainID)
	})
}

func (s *RegistrySuite) TestNewRegistryRejectsDuplicates() {
	_, err := NewRegistry(
		ChainContext{ChainID: 56, Client: &EthClient{chainID: 56}},
		ChainContext{ChainID: 56, Client: &EthClient{chainID: 56}},
	)
	s.Error(err)
}

func (s *RegistrySuite) TestBootstrap() {
	s.Run("registers every reachable chain in order", func() {
		providers := []config.Provider{
			{RPCURL: "https://testnet", ContractAddress: testContract},
			{RPCURL: "https://mainnet", ContractAddress: testContract},
		}
		reg, err := Bootstrap(context.Background(), providers, s.dialer(map[string]int64{
			"https://mainnet": 56,
			"https://testnet": 97,
		}), 0, s.logger)
		s.Require().NoError(err)
		s.Equal([]uint64{56, 97}, reg.ActiveChainIDs())
	})

	s.Run("skips a failing provider", func() {
		providers := []config.Provider{
			{RPCURL: "https://down", ContractAddress: testContract},
			{RPCURL: "https://mainnet", ContractAddress: testContract},
		}
		reg, err := Bootstrap(context.Background(), providers, s.dialer(map[string]int64{
			"https://mainnet": 56,
		}), 0, s.logger)
		s.Require().NoError(err)
		s.Equal([]uint64{56}, reg.ActiveChainIDs())
	})

	s.Run("keeps the first provider for a duplicate chain", func() {
		providers := []config.Provider{
			{RPCURL: "https://a", ContractAddress: testContract},
			{RPCURL: "https://b", ContractAddress: "0x00000000000000000000000000000000000000c1"},
		}
		reg, err := Bootstrap(context.Background(), providers, s.dialer(map[string]int64{
			"https://a": 56,
			"https://b": 56,
		}), 0, s.logger)
		s.Require().NoError(err)
		c, err := reg.ContextFor(56)
		s.Require().NoError(err)
		s.Equal(common.HexToAddress(testContract), c.Client.(*EthClient).contract)
	})

	s.Run("rejects an invalid contract address", func() {
		providers := []config.Provider{{RPCURL: "https://mainnet", ContractAddress: "nope"}}
		_, err := Bootstrap(context.Background(), providers, s.dialer(map[string]int64{
			"https://mainnet": 56,
		}), 0, s.logger)
		s.Error(err)
	})

	s.Run("fails when no chain comes up", func() {
		providers := []config.Provider{{RPCURL: "https://down", ContractAddress: testContract}}
		_, err := Bootstrap(context.Background(), providers, s.dialer(nil), 0, s.logger)
		s.Error(err)
	})

	s.Run("fails without providers", func() {
		_, err := Bootstrap(context.Background(), nil, s.dialer(nil), 0, s.logger)
		s.Error(err)
	})
}
