// Package service provides the core pipeline that turns a character
// reference into a ranked teammate frequency report.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mythra/keymates/internal/domain/dedupe"
	"github.com/mythra/keymates/internal/domain/model"
	"github.com/mythra/keymates/internal/domain/tally"
	"github.com/mythra/keymates/pkg/logger"
	"github.com/mythra/keymates/pkg/metrics"
)

// Client is the surface of the remote service this pipeline consumes.
type Client interface {
	// ResolveCharacterID scrapes the numeric character id from the profile page.
	ResolveCharacterID(ctx context.Context, region, realm, name string) (int64, error)

	// DungeonIDs harvests the dungeon ids the character has recorded runs in.
	DungeonIDs(ctx context.Context, region, realm, name string) ([]int64, error)

	// RunsForDungeon fetches the character's runs scoped to one dungeon.
	RunsForDungeon(ctx context.Context, characterID, dungeonID int64) ([]model.Run, error)

	// RunsForCharacter fetches all runs in one bulk request.
	RunsForCharacter(ctx context.Context, characterID int64) ([]model.Run, error)

	// RunRoster fetches the participant list of one run.
	RunRoster(ctx context.Context, runID int64) ([]model.RosterMember, error)
}

// Strategy selects how the run set is discovered.
type Strategy string

// Discovery strategies. PerDungeon is canonical; Bulk is the simpler
// alternate that has historically been less complete against the live service.
const (
	StrategyPerDungeon Strategy = "per_dungeon"
	StrategyBulk       Strategy = "bulk"
)

const defaultRosterDelay = 50 * time.Millisecond

// Report is the outcome of one pipeline invocation. Suitable both for
// rendering and for embedding the aggregate elsewhere.
type Report struct {
	Identity       model.CharacterIdentity
	RunsDiscovered int
	RunsProcessed  int
	RostersSkipped int
	TeammateCounts map[string]int
	Top            []tally.Entry
}

// Service implements the sequential collection and aggregation pipeline:
// identity -> runs -> rosters -> frequency table. There is no concurrency;
// the tally is mutated only by the aggregation loop.
type Service struct {
	client  Client
	tally   tally.Store
	deduper dedupe.Deduper

	strategy    Strategy
	rosterDelay time.Duration
	topN        int

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStrategy selects the run discovery strategy.
func WithStrategy(strategy Strategy) Option {
	return func(s *Service) {
		if strategy == StrategyPerDungeon || strategy == StrategyBulk {
			s.strategy = strategy
		}
	}
}

// WithRosterDelay sets the courtesy pause between successive roster fetches.
// Zero disables the pause.
func WithRosterDelay(delay time.Duration) Option {
	return func(s *Service) {
		if delay >= 0 {
			s.rosterDelay = delay
		}
	}
}

// WithTopN caps the ranked entries included in the report.
func WithTopN(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.topN = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs the pipeline service around a remote client.
func New(client Client, opts ...Option) *Service {
	s := &Service{
		client:      client,
		tally:       tally.NewMapStore(),
		deduper:     dedupe.NewInMemoryDeduper(),
		strategy:    StrategyPerDungeon,
		rosterDelay: defaultRosterDelay,
		topN:        20,
		logger:      nil, // resolved lazily from the global logger
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Named("pipeline")
	}
	return s
}

// Run executes the whole pipeline for one character and returns the report.
// Identity resolution and discovery failures are fatal; individual roster
// fetch failures are skipped and reflected in the report.
func (s *Service) Run(ctx context.Context, region, realm, name string) (*Report, error) {
	characterID, err := s.client.ResolveCharacterID(ctx, region, realm, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResolveIdentity, err)
	}

	identity := model.CharacterIdentity{
		Region: region,
		Realm:  realm,
		Name:   name,
		ID:     characterID,
	}
	s.logger.Info(ctx, "character resolved",
		logger.String("name", name),
		logger.String("realm", realm),
		logger.String("region", region),
		logger.Int64("characterId", characterID),
	)

	runs, err := s.discoverRuns(ctx, identity)
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "unique runs gathered", logger.Int("runs", len(runs)))

	processed, skipped, err := s.aggregate(ctx, runs, name)
	if err != nil {
		return nil, err
	}

	metrics.UpdateTeammatesTracked(s.tally.Count(ctx))

	return &Report{
		Identity:       identity,
		RunsDiscovered: len(runs),
		RunsProcessed:  processed,
		RostersSkipped: skipped,
		TeammateCounts: s.tally.Snapshot(ctx),
		Top:            s.tally.TopN(ctx, s.topN),
	}, nil
}

// discoverRuns produces the complete deduplicated run set for the character
// using the configured strategy. Records without an extractable id are
// dropped silently; duplicates across discovery paths are kept first-seen.
func (s *Service) discoverRuns(ctx context.Context, identity model.CharacterIdentity) ([]model.Run, error) {
	var batches [][]model.Run

	switch s.strategy {
	case StrategyBulk:
		runs, err := s.client.RunsForCharacter(ctx, identity.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: bulk fetch: %w", ErrDiscovery, err)
		}
		batches = append(batches, runs)

	default: // StrategyPerDungeon
		dungeonIDs, err := s.client.DungeonIDs(ctx, identity.Region, identity.Realm, identity.Name)
		if err != nil {
			return nil, fmt.Errorf("%w: dungeon list: %w", ErrDiscovery, err)
		}
		s.logger.Info(ctx, "dungeons detected",
			logger.Int("count", len(dungeonIDs)),
			logger.Any("dungeonIds", dungeonIDs),
		)

		for _, dungeonID := range dungeonIDs {
			s.logger.Info(ctx, "fetching runs for dungeon", logger.Int64("dungeonId", dungeonID))
			runs, err := s.client.RunsForDungeon(ctx, identity.ID, dungeonID)
			if err != nil {
				return nil, fmt.Errorf("%w: dungeon %d: %w", ErrDiscovery, dungeonID, err)
			}
			batches = append(batches, runs)
		}
	}

	var unique []model.Run
	for _, batch := range batches {
		for _, run := range batch {
			if !run.Identified() {
				metrics.RecordRunUnidentified()
				continue
			}
			if s.deduper.SeenAndRecord(ctx, run.ID) {
				metrics.RecordRunDuplicate()
				continue
			}
			metrics.RecordRunDiscovered()
			unique = append(unique, run)
		}
	}
	return unique, nil
}

// aggregate folds each run's roster into the tally. One run's failure never
// aborts the whole aggregation; the run is skipped with a warning.
func (s *Service) aggregate(ctx context.Context, runs []model.Run, subject string) (processed, skipped int, err error) {
	total := len(runs)

	for i, run := range runs {
		s.logger.Info(ctx, "processing run",
			logger.Int("index", i+1),
			logger.Int("total", total),
			logger.Int64("runId", run.ID),
		)

		roster, err := s.client.RunRoster(ctx, run.ID)
		if err != nil {
			s.logger.Warn(ctx, "skipping run",
				logger.Int64("runId", run.ID),
				logger.Error(err),
			)
			metrics.RecordRosterSkipped()
			skipped++
			continue
		}

		for _, member := range roster {
			// The subject never counts as their own teammate.
			if strings.EqualFold(member.Name, subject) {
				continue
			}
			s.tally.Add(ctx, member.FullIdentity())
		}
		metrics.RecordRosterFetched()
		processed++

		// Courtesy throttle between successive roster fetches.
		if s.rosterDelay > 0 && i < total-1 {
			select {
			case <-ctx.Done():
				return processed, skipped, ctx.Err()
			case <-time.After(s.rosterDelay):
			}
		}
	}
	return processed, skipped, nil
}
