// Package prompts decides which prompt the user sees: a once-per-day random
// rotation over the catalog, with a persisted user override that takes
// precedence until cleared.
package prompts

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/storychop/storychop/internal/repositories"
	"github.com/storychop/storychop/internal/shared"
)

// State keys shared with the persisted app_state table.
const (
	stateKeyDailyPrompt = "dailyPrompt"
	stateKeyDailyDate   = "dailyPromptDate"
	stateKeyOverride    = "selectedPrompt"
)

// dayLayout is the calendar-day marker format.
const dayLayout = "2006-01-02"

// PoolTTL is how long the in-memory prompt pool stays fresh.
const PoolTTL = time.Hour

// builtinFallback keeps the service from ever returning nothing, even on a
// fresh install with an unreadable catalog.
var builtinFallback = []string{
	"Tell us about your first home",
	"Who inspired you as a child?",
	"Describe a favorite family tradition",
	"What was your first job?",
	"Share a memorable holiday experience",
}

// Catalog is the slice of the prompt repository the supply service reads.
type Catalog interface {
	Texts() ([]string, error)
}

// SupplyService maintains the cached "prompt of the day".
type SupplyService struct {
	mu      sync.Mutex
	catalog Catalog
	state   *repositories.StateRepository
	logger  *log.Logger
	now     func() time.Time
	pick    func(n int) int

	pool        []string
	poolFetched time.Time
}

// SupplyOpts contains dependencies for the supply service.
type SupplyOpts struct {
	Catalog Catalog
	State   *repositories.StateRepository
	Logger  *log.Logger
	Now     func() time.Time // defaults to time.Now, injectable for tests
	Pick    func(n int) int  // defaults to rand.Intn, injectable for tests
}

// NewSupplyService creates a supply service with an empty pool cache.
func NewSupplyService(opts SupplyOpts) *SupplyService {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Pick == nil {
		opts.Pick = rand.Intn
	}

	return &SupplyService{
		catalog: opts.Catalog,
		state:   opts.State,
		logger:  opts.Logger,
		now:     opts.Now,
		pick:    opts.Pick,
	}
}

// CurrentPrompt returns today's prompt. The first call of a calendar day
// draws one prompt uniformly at random from the pool and persists it with a
// day marker; later calls that day return the same string.
func (s *SupplyService) CurrentPrompt() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := s.now().Format(dayLayout)

	marker, ok, err := s.state.Get(stateKeyDailyDate)
	if err != nil {
		return "", fmt.Errorf("failed to read daily marker: %w", err)
	}
	if ok && marker == today {
		if prompt, ok, err := s.state.Get(stateKeyDailyPrompt); err == nil && ok {
			return prompt, nil
		}
	}

	pool := s.refreshedPool()
	choice := pool[s.pick(len(pool))]

	if err := s.state.Set(stateKeyDailyPrompt, choice); err != nil {
		return "", fmt.Errorf("failed to persist daily prompt: %w", err)
	}
	if err := s.state.Set(stateKeyDailyDate, today); err != nil {
		return "", fmt.Errorf("failed to persist daily marker: %w", err)
	}

	s.logger.Info("rotated daily prompt", "prompt", choice, "day", today)
	return choice, nil
}

// Refresh invalidates the pool cache so the next rotation re-reads the
// catalog. Today's already-chosen prompt is untouched.
func (s *SupplyService) Refresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pool = nil
	s.poolFetched = time.Time{}
}

// refreshedPool returns the candidate pool, re-reading the catalog when the
// cache is older than [PoolTTL] or empty. A read failure keeps the last good
// cache; with no cache ever fetched the built-in list stands in. Callers
// hold s.mu.
func (s *SupplyService) refreshedPool() []string {
	if len(s.pool) > 0 && s.now().Sub(s.poolFetched) < PoolTTL {
		return s.pool
	}

	texts, err := s.catalog.Texts()
	if err != nil {
		s.logger.Warn("catalog read failed, keeping last pool", "err", err)
		if len(s.pool) > 0 {
			return s.pool
		}
		return builtinFallback
	}

	if len(texts) == 0 {
		s.logger.Warn("catalog is empty, using built-in prompts")
		return builtinFallback
	}

	s.pool = texts
	s.poolFetched = s.now()
	return s.pool
}
