package prompts

import (
	"errors"
	"testing"
	"time"

	"github.com/storychop/storychop/internal/repositories"
	"github.com/storychop/storychop/internal/shared"
)

func setupState(t *testing.T) *repositories.StateRepository {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return repositories.NewStateRepository(db)
}

// fakeCatalog is a scriptable Catalog.
type fakeCatalog struct {
	texts []string
	err   error
	reads int
}

func (c *fakeCatalog) Texts() ([]string, error) {
	c.reads++
	if c.err != nil {
		return nil, c.err
	}
	return c.texts, nil
}

// testClock is a movable wall clock.
type testClock struct{ t time.Time }

func (c *testClock) now() time.Time { return c.t }

func newTestSupply(t *testing.T, catalog Catalog, clock *testClock) (*SupplyService, *repositories.StateRepository) {
	t.Helper()

	state := setupState(t)
	supply := NewSupplyService(SupplyOpts{
		Catalog: catalog,
		State:   state,
		Now:     clock.now,
	})
	return supply, state
}

func TestSupplyService(t *testing.T) {
	t.Run("Same Day Returns Identical Prompt", func(t *testing.T) {
		catalog := &fakeCatalog{texts: []string{"alpha", "beta", "gamma"}}
		clock := &testClock{t: time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)}
		supply, _ := newTestSupply(t, catalog, clock)

		first, err := supply.CurrentPrompt()
		if err != nil {
			t.Fatalf("failed to get prompt: %v", err)
		}

		clock.t = clock.t.Add(5 * time.Hour) // still the same calendar day

		second, err := supply.CurrentPrompt()
		if err != nil {
			t.Fatalf("failed to get prompt: %v", err)
		}

		if first != second {
			t.Errorf("same-day prompts differ: %q vs %q", first, second)
		}
	})

	t.Run("New Day Rotates And Updates Marker", func(t *testing.T) {
		catalog := &fakeCatalog{texts: []string{"alpha", "beta", "gamma"}}
		clock := &testClock{t: time.Date(2026, 8, 27, 23, 0, 0, 0, time.UTC)}
		supply, state := newTestSupply(t, catalog, clock)

		if _, err := supply.CurrentPrompt(); err != nil {
			t.Fatalf("failed to get prompt: %v", err)
		}

		marker, _, _ := state.Get("dailyPromptDate")
		if marker != "2026-08-27" {
			t.Errorf("expected marker 2026-08-27, got %q", marker)
		}

		clock.t = clock.t.Add(2 * time.Hour) // crosses midnight

		prompt, err := supply.CurrentPrompt()
		if err != nil {
			t.Fatalf("failed to get prompt: %v", err)
		}
		if prompt == "" {
			t.Fatal("rotation should always yield a prompt")
		}

		marker, _, _ = state.Get("dailyPromptDate")
		if marker != "2026-08-28" {
			t.Errorf("expected updated marker 2026-08-28, got %q", marker)
		}
	})

	t.Run("Stale Marker Forces Fresh Draw", func(t *testing.T) {
		catalog := &fakeCatalog{texts: []string{"only-candidate"}}
		clock := &testClock{t: time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)}
		supply, state := newTestSupply(t, catalog, clock)

		// Pretend yesterday chose a prompt that is no longer in the catalog.
		state.Set("dailyPrompt", "retired prompt")
		state.Set("dailyPromptDate", "2026-08-27")

		prompt, err := supply.CurrentPrompt()
		if err != nil {
			t.Fatalf("failed to get prompt: %v", err)
		}
		if prompt != "only-candidate" {
			t.Errorf("stale marker should force a fresh draw, got %q", prompt)
		}

		marker, _, _ := state.Get("dailyPromptDate")
		if marker != "2026-08-28" {
			t.Errorf("expected marker updated to today, got %q", marker)
		}
	})

	t.Run("Pool Cache Expires After An Hour", func(t *testing.T) {
		catalog := &fakeCatalog{texts: []string{"alpha"}}
		clock := &testClock{t: time.Date(2026, 8, 28, 0, 30, 0, 0, time.UTC)}
		supply, state := newTestSupply(t, catalog, clock)

		if _, err := supply.CurrentPrompt(); err != nil {
			t.Fatalf("failed to get prompt: %v", err)
		}
		if catalog.reads != 1 {
			t.Fatalf("expected one catalog read, got %d", catalog.reads)
		}

		// Within the hour the cached pool is reused.
		state.Delete("dailyPromptDate")
		clock.t = clock.t.Add(30 * time.Minute)
		if _, err := supply.CurrentPrompt(); err != nil {
			t.Fatalf("failed to get prompt: %v", err)
		}
		if catalog.reads != 1 {
			t.Errorf("pool should be cached within the hour, got %d reads", catalog.reads)
		}

		// Past the hour the catalog is re-read.
		state.Delete("dailyPromptDate")
		clock.t = clock.t.Add(45 * time.Minute)
		if _, err := supply.CurrentPrompt(); err != nil {
			t.Fatalf("failed to get prompt: %v", err)
		}
		if catalog.reads != 2 {
			t.Errorf("stale pool should be re-read, got %d reads", catalog.reads)
		}
	})

	t.Run("Read Failure Keeps Last Good Pool", func(t *testing.T) {
		catalog := &fakeCatalog{texts: []string{"alpha"}}
		clock := &testClock{t: time.Date(2026, 8, 28, 0, 30, 0, 0, time.UTC)}
		supply, state := newTestSupply(t, catalog, clock)

		if _, err := supply.CurrentPrompt(); err != nil {
			t.Fatalf("failed to get prompt: %v", err)
		}

		catalog.err = errors.New("disk on fire")
		state.Delete("dailyPromptDate")
		clock.t = clock.t.Add(2 * time.Hour)

		prompt, err := supply.CurrentPrompt()
		if err != nil {
			t.Fatalf("failed to get prompt: %v", err)
		}
		if prompt != "alpha" {
			t.Errorf("read failure should fall back to the last good pool, got %q", prompt)
		}
	})

	t.Run("Read Failure With No Cache Uses Builtin Five", func(t *testing.T) {
		catalog := &fakeCatalog{err: errors.New("no such table")}
		clock := &testClock{t: time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)}

		seen := map[string]bool{}
		state := setupState(t)
		pickIndex := 0
		supply := NewSupplyService(SupplyOpts{
			Catalog: catalog,
			State:   state,
			Now:     clock.now,
			Pick: func(n int) int {
				if n != 5 {
					t.Errorf("expected the 5-item built-in fallback set, got %d candidates", n)
				}
				return pickIndex % n
			},
		})

		for day := 0; day < 5; day++ {
			pickIndex = day
			prompt, err := supply.CurrentPrompt()
			if err != nil {
				t.Fatalf("failed to get prompt: %v", err)
			}
			seen[prompt] = true
			clock.t = clock.t.Add(24 * time.Hour)
		}

		if len(seen) != 5 {
			t.Errorf("expected exactly the 5 built-in prompts over 5 days, got %d distinct", len(seen))
		}
	})

	t.Run("Empty Catalog Uses Builtin", func(t *testing.T) {
		catalog := &fakeCatalog{texts: nil}
		clock := &testClock{t: time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)}
		supply, _ := newTestSupply(t, catalog, clock)

		prompt, err := supply.CurrentPrompt()
		if err != nil {
			t.Fatalf("failed to get prompt: %v", err)
		}

		found := false
		for _, p := range builtinFallback {
			if p == prompt {
				found = true
			}
		}
		if !found {
			t.Errorf("empty catalog should draw from the built-in list, got %q", prompt)
		}
	})

	t.Run("Refresh Invalidates Pool Not Daily Prompt", func(t *testing.T) {
		catalog := &fakeCatalog{texts: []string{"alpha"}}
		clock := &testClock{t: time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)}
		supply, _ := newTestSupply(t, catalog, clock)

		today, err := supply.CurrentPrompt()
		if err != nil {
			t.Fatalf("failed to get prompt: %v", err)
		}

		catalog.texts = []string{"brand new prompt"}
		supply.Refresh()

		again, err := supply.CurrentPrompt()
		if err != nil {
			t.Fatalf("failed to get prompt: %v", err)
		}
		if again != today {
			t.Errorf("refresh must not change today's prompt: %q vs %q", again, today)
		}
	})
}

func TestOverride(t *testing.T) {
	t.Run("Set Get Clear", func(t *testing.T) {
		override := NewOverride(setupState(t))

		if _, ok, _ := override.Get(); ok {
			t.Error("fresh override should be empty")
		}

		if err := override.Set("Tell a story about a family gathering you still laugh about"); err != nil {
			t.Fatalf("failed to set override: %v", err)
		}

		text, ok, err := override.Get()
		if err != nil || !ok {
			t.Fatalf("override should be present: %v", err)
		}
		if text == "" {
			t.Error("override text should round-trip")
		}

		if err := override.Clear(); err != nil {
			t.Fatalf("failed to clear override: %v", err)
		}
		if _, ok, _ := override.Get(); ok {
			t.Error("cleared override should be gone")
		}

		// Clearing again is a no-op.
		if err := override.Clear(); err != nil {
			t.Errorf("second clear should be a no-op: %v", err)
		}
	})

	t.Run("Set Rejects Empty", func(t *testing.T) {
		override := NewOverride(setupState(t))
		if err := override.Set(""); err == nil {
			t.Error("empty override should be rejected")
		}
	})

	t.Run("Effective Prefers Override", func(t *testing.T) {
		state := setupState(t)
		override := NewOverride(state)
		supply := NewSupplyService(SupplyOpts{
			Catalog: &fakeCatalog{texts: []string{"daily choice"}},
			State:   state,
			Now:     (&testClock{t: time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)}).now,
		})

		prompt, err := Effective(override, supply)
		if err != nil {
			t.Fatalf("failed to resolve prompt: %v", err)
		}
		if prompt != "daily choice" {
			t.Errorf("without override the daily prompt wins, got %q", prompt)
		}

		if err := override.Set("user pick"); err != nil {
			t.Fatalf("failed to set override: %v", err)
		}

		prompt, err = Effective(override, supply)
		if err != nil {
			t.Fatalf("failed to resolve prompt: %v", err)
		}
		if prompt != "user pick" {
			t.Errorf("override should win, got %q", prompt)
		}
	})
}
