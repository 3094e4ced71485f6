// Package resolver turns the attribute-change history of a registry identity
// into a DID Document, serving live queries from a freshness-checked cache.
package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"sdi-resolver/internal/did"
	"sdi-resolver/internal/ledger"
	"sdi-resolver/internal/resolver/metrics"
	"sdi-resolver/internal/resolver/store"
	"sdi-resolver/pkg/platform/audit"
	"sdi-resolver/pkg/requestcontext"
)

// NoController is rendered when the registry reports a renounced controller.
const NoController = "did:sdi:none"

// renouncedController is the all-F address the registry uses for "no controller".
var renouncedController = common.HexToAddress("0xFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFF")

var tracer = otel.Tracer("sdi-resolver/internal/resolver")

// ChainSource hands out the ledger client of a registered chain.
type ChainSource interface {
	ContextFor(chainID uint64) (ledger.ChainContext, error)
	ActiveChainIDs() []uint64
}

// Resolution is a resolved document in its serialized form.
type Resolution struct {
	Document        json.RawMessage
	LastBlockNumber uint64
	CacheHit        bool
}

// Service resolves DIDs against the registered chains.
type Service struct {
	chains      ChainSource
	cache       store.Store
	walker      *Walker
	builder     *Builder
	diagnostics *Diagnostics
	metrics     *metrics.Metrics
	auditor     audit.Publisher
	logger      *slog.Logger

	defaultChainID uint64
	networks       map[string]uint64

	inflight singleflight.Group
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithDiagnostics(d *Diagnostics) Option {
	return func(s *Service) {
		s.diagnostics = d
	}
}

func WithAuditPublisher(p audit.Publisher) Option {
	return func(s *Service) {
		s.auditor = p
	}
}

// WithClock sets the clock validity windows are judged against.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.walker = NewWalker(now)
	}
}

func WithIPFSGateway(gateway string) Option {
	return func(s *Service) {
		s.builder = NewBuilder(gateway)
	}
}

// WithDefaultChain sets the chain used when a query names none.
func WithDefaultChain(chainID uint64) Option {
	return func(s *Service) {
		s.defaultChainID = chainID
	}
}

// WithNetworkAliases maps network names such as "mainnet" to chain ids.
func WithNetworkAliases(aliases map[string]uint64) Option {
	return func(s *Service) {
		s.networks = aliases
	}
}

// New constructs a Service. cache may be nil to disable caching.
func New(chains ChainSource, cache store.Store, opts ...Option) *Service {
	s := &Service{
		chains:         chains,
		cache:          cache,
		walker:         NewWalker(nil),
		builder:        NewBuilder(""),
		auditor:        audit.NopPublisher{},
		logger:         slog.Default(),
		defaultChainID: 56,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.diagnostics == nil {
		s.diagnostics = NewDiagnostics(s.metrics)
	}
	return s
}

// Resolve builds the document of address on chainID. With a nil date the query
// is live: a cache entry recorded at the current change block is returned
// verbatim and a fresh build is persisted. Historical queries never touch the
// cache.
func (s *Service) Resolve(ctx context.Context, address common.Address, didStr string, chainID uint64, date *time.Time) (*Resolution, error) {
	ctx, span := tracer.Start(ctx, "resolver.resolve")
	defer span.End()
	span.SetAttributes(
		attribute.String("did", didStr),
		attribute.Int64("chain_id", int64(chainID)),
		attribute.Bool("historical", date != nil),
	)

	res, err := s.resolve(ctx, address, didStr, chainID, date)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Bool("cache_hit", res.CacheHit))
	return res, nil
}

func (s *Service) resolve(ctx context.Context, address common.Address, didStr string, chainID uint64, date *time.Time) (*Resolution, error) {
	chain, err := s.chains.ContextFor(chainID)
	if err != nil {
		return nil, err
	}
	client := s.diagnostics.Bind(DiagnosticsKey{DID: didStr, ChainID: chainID}, chain.Client)

	head, err := client.ChangedDIDDocuments(ctx, address)
	if err != nil {
		return nil, err
	}

	if date != nil {
		return s.build(ctx, client, address, didStr, chainID, head, date)
	}

	key := store.Key{DID: didStr, ChainID: chainID}
	if entry := s.findFresh(ctx, key, head); entry != nil {
		s.metrics.IncrementCacheHit()
		return &Resolution{Document: entry.Document, LastBlockNumber: head, CacheHit: true}, nil
	}
	s.metrics.IncrementCacheMiss()

	v, err, _ := s.inflight.Do(key.String()+"@"+strconv.FormatUint(head, 10), func() (any, error) {
		res, err := s.build(ctx, client, address, didStr, chainID, head, nil)
		if err != nil {
			return nil, err
		}
		s.persist(ctx, key, res)
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Resolution), nil
}

// findFresh returns the cached entry only when it was derived from head.
// Store failures are treated as a miss.
func (s *Service) findFresh(ctx context.Context, key store.Key, head uint64) *store.Entry {
	if s.cache == nil {
		return nil
	}
	entry, err := s.cache.Find(ctx, key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.WarnContext(ctx, "resolution cache read failed",
				"request_id", requestcontext.RequestID(ctx),
				"did", key.DID,
				"chain_id", key.ChainID,
				"error", err,
			)
		}
		return nil
	}
	if entry.LastBlockNumber != head {
		return nil
	}
	return entry
}

func (s *Service) persist(ctx context.Context, key store.Key, res *Resolution) {
	if s.cache == nil {
		return
	}
	err := s.cache.Upsert(ctx, &store.Entry{
		DID:             key.DID,
		ChainID:         key.ChainID,
		Document:        res.Document,
		LastBlockNumber: res.LastBlockNumber,
		Active:          true,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "resolution cache write failed",
			"request_id", requestcontext.RequestID(ctx),
			"did", key.DID,
			"chain_id", key.ChainID,
			"error", err,
		)
	}
}

func (s *Service) build(ctx context.Context, client ledger.Client, address common.Address, didStr string, chainID, head uint64, date *time.Time) (*Resolution, error) {
	record, err := client.GetDID(ctx, address)
	if err != nil {
		return nil, err
	}

	publishes := false
	if record.HasServiceHash() {
		publishes, err = holdsProfileRole(ctx, client, address)
		if err != nil {
			return nil, err
		}
	}

	events, err := s.walker.Walk(ctx, client, address, head, date)
	if err != nil {
		return nil, err
	}

	doc := s.builder.Build(BuildInput{
		Identity:          address,
		DID:               didStr,
		Controller:        controllerOf(record.Controller, address, didStr),
		ChainID:           chainID,
		ServiceHash:       record.ServiceHash,
		AuthenticationKey: record.AuthenticationKey,
		PublishesProfile:  publishes,
		Events:            events,
	})
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode did document: %w", err)
	}
	return &Resolution{Document: raw, LastBlockNumber: head}, nil
}

// holdsProfileRole runs the issuer and verifier checks concurrently.
func holdsProfileRole(ctx context.Context, client ledger.Client, address common.Address) (bool, error) {
	var issuer, verifier bool
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		issuer, err = client.HasRole(gctx, ledger.IssuerRole, address)
		return err
	})
	g.Go(func() error {
		var err error
		verifier, err = client.HasRole(gctx, ledger.VerifierRole, address)
		return err
	})
	if err := g.Wait(); err != nil {
		return false, err
	}
	return issuer || verifier, nil
}

func controllerOf(controller, address common.Address, didStr string) string {
	switch controller {
	case address:
		return didStr
	case renouncedController:
		return NoController
	default:
		return did.FormatAccount(controller)
	}
}

// Diagnostics exposes the ledger call counters.
func (s *Service) Diagnostics() *Diagnostics {
	return s.diagnostics
}
