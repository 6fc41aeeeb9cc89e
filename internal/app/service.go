// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"runtime"
	"sync"

	repository "github.com/okian/nircadb/internal/adapters/repository"
	"github.com/okian/nircadb/internal/domain/resolve"
	"github.com/okian/nircadb/pkg/logger"
)

// Service implements the API dependencies for the rating database.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     repository.Store
	ownsStore bool

	// Configuration
	maxTableLimit   int
	simTrials       int
	simDispersion   float64
	simWorkers      int
	simSeed         uint64
	teamThreshold   int
	runnerThreshold int
	searchTopK      int

	// State
	pending *pendingImport
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore injects a pre-built store. The service will not close it.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithMaxTableLimit caps ranking table sizes.
func WithMaxTableLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxTableLimit = n
		}
	}
}

// WithSimTrials sets the default Monte Carlo trial count.
func WithSimTrials(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.simTrials = n
		}
	}
}

// WithSimDispersion sets the default simulated rating spread.
func WithSimDispersion(f float64) Option {
	return func(s *Service) {
		if f > 0 {
			s.simDispersion = f
		}
	}
}

// WithSimWorkers bounds the simulation trial fan-out.
func WithSimWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.simWorkers = n
		}
	}
}

// WithSimSeed fixes the simulation random source.
func WithSimSeed(seed uint64) Option {
	return func(s *Service) {
		s.simSeed = seed
	}
}

// WithMatchThresholds sets the minimum fuzzy search confidences.
func WithMatchThresholds(team, runner int) Option {
	return func(s *Service) {
		if team >= 0 && team <= 100 {
			s.teamThreshold = team
		}
		if runner >= 0 && runner <= 100 {
			s.runnerThreshold = runner
		}
	}
}

// WithSearchTopK caps candidates returned per searched name.
func WithSearchTopK(k int) Option {
	return func(s *Service) {
		if k > 0 {
			s.searchTopK = k
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		maxTableLimit:   100,
		simTrials:       1000,
		simDispersion:   4.0,
		simWorkers:      runtime.NumCPU(),
		simSeed:         1,
		teamThreshold:   resolve.DefaultTeamThreshold,
		runnerThreshold: resolve.DefaultRunnerThreshold,
		searchTopK:      resolve.DefaultTopK,
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting rating service...")

	if s.store == nil {
		s.store = repository.NewMemStore()
		s.ownsStore = true
		s.logger.Info(ctx, "using in-memory store")
	}

	s.started = true
	s.logger.Info(ctx, "rating service started",
		logger.Int("simTrials", s.simTrials),
		logger.Float64("simDispersion", s.simDispersion),
		logger.Int("simWorkers", s.simWorkers),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping rating service...")

	if s.ownsStore {
		if closer, ok := s.store.(interface{ Close() }); ok {
			closer.Close()
		}
	}
	s.pending = nil

	s.started = false
	s.logger.Info(context.Background(), "rating service stopped")
}
