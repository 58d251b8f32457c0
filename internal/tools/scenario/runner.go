package scenario

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	gardenapp "github.com/astralgarden/astral.garden/internal/services/garden/app"
	gardendomain "github.com/astralgarden/astral.garden/internal/services/garden/domain"
	identityapp "github.com/astralgarden/astral.garden/internal/services/identity/app"
	identitydomain "github.com/astralgarden/astral.garden/internal/services/identity/domain"
)

// Config controls scenario execution.
type Config struct {
	// DataDir holds the scenario databases. Empty means a throwaway
	// directory that is removed on Close.
	DataDir    string
	Timeout    time.Duration
	Assertions AssertionMode
	Verbose    bool
	Logger     *log.Logger
	// Seed fixes the garden's random rolls so a script replays the same
	// way every run.
	Seed int64
	// Start is the simulated wall clock before the first step. Zero means
	// the current time.
	Start time.Time
}

// DefaultConfig returns default runner configuration.
func DefaultConfig() Config {
	return Config{
		Timeout:    10 * time.Second,
		Assertions: AssertionStrict,
		Seed:       1,
	}
}

// scenarioClock is the simulated clock that advance steps move. The garden
// services read it instead of the wall clock, so a script can cross days
// in one run.
type scenarioClock struct {
	mu  sync.Mutex
	now time.Time
}

func newScenarioClock(start time.Time) *scenarioClock {
	return &scenarioClock{now: start.UTC()}
}

func (c *scenarioClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *scenarioClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Runner executes Lua scenarios against an isolated garden.
type Runner struct {
	env        scenarioEnv
	clock      *scenarioClock
	assertions Assertions
	logger     *log.Logger
	verbose    bool
	timeout    time.Duration
	cleanup    func() error
}

// NewRunner opens throwaway garden and identity databases and prepares a
// scenario runner around them.
func NewRunner(ctx context.Context, cfg Config) (*Runner, error) {
	dataDir := cfg.DataDir
	removeDir := false
	if dataDir == "" {
		dir, err := os.MkdirTemp("", "garden-scenario-*")
		if err != nil {
			return nil, fmt.Errorf("create scenario dir: %w", err)
		}
		dataDir = dir
		removeDir = true
	}

	start := cfg.Start
	if start.IsZero() {
		start = time.Now().UTC()
	}
	clock := newScenarioClock(start)

	seed := cfg.Seed
	if seed == 0 {
		seed = 1
	}

	garden, err := gardenapp.Open(filepath.Join(dataDir, "garden.db"), gardendomain.Config{
		Clock: clock.Now,
		Rand:  rand.New(rand.NewSource(seed)),
	})
	if err != nil {
		if removeDir {
			_ = os.RemoveAll(dataDir)
		}
		return nil, fmt.Errorf("open garden: %w", err)
	}

	identity, err := identityapp.Open(filepath.Join(dataDir, "identity.db"), identitydomain.Config{
		Clock: clock.Now,
	})
	if err != nil {
		_ = garden.Close()
		if removeDir {
			_ = os.RemoveAll(dataDir)
		}
		return nil, fmt.Errorf("open identity: %w", err)
	}

	cleanup := func() error {
		gardenErr := garden.Close()
		identityErr := identity.Close()
		if removeDir {
			_ = os.RemoveAll(dataDir)
		}
		if gardenErr != nil {
			return gardenErr
		}
		return identityErr
	}

	env := scenarioEnv{garden: garden.Service(), identity: identity.Service()}
	runner, err := newRunnerWithDeps(cfg, runnerDeps{env: env, clock: clock, cleanup: cleanup})
	if err != nil {
		_ = cleanup()
		return nil, err
	}
	return runner, nil
}

// newRunnerWithDeps builds a Runner from pre-built dependencies.
// Config defaults (logger, timeout) are applied here so they are testable.
func newRunnerWithDeps(cfg Config, deps runnerDeps) (*Runner, error) {
	if deps.clock == nil {
		return nil, errors.New("clock is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "", 0)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Runner{
		env:        deps.env,
		clock:      deps.clock,
		assertions: Assertions{Mode: cfg.Assertions, Logger: logger},
		logger:     logger,
		verbose:    cfg.Verbose,
		timeout:    timeout,
		cleanup:    deps.cleanup,
	}, nil
}

// Close releases resources held by the runner.
func (r *Runner) Close() error {
	if r.cleanup != nil {
		return r.cleanup()
	}
	return nil
}

// RunFile loads and executes a scenario file.
func RunFile(ctx context.Context, cfg Config, path string) error {
	runner, err := NewRunner(ctx, cfg)
	if err != nil {
		return err
	}
	defer runner.Close()

	scenario, err := LoadScenarioFromFile(path)
	if err != nil {
		return err
	}
	return runner.RunScenario(ctx, scenario)
}

// RunScenario executes the scenario steps against the garden.
func (r *Runner) RunScenario(ctx context.Context, scenario *Scenario) error {
	if scenario == nil {
		return errors.New("scenario is required")
	}
	r.logf("scenario start: %s (%d steps)", scenario.Name, len(scenario.Steps))
	state := &scenarioState{
		accounts: map[string]string{},
	}

	for index, step := range scenario.Steps {
		stepNumber := index + 1
		r.logf("step %d/%d start: %s", stepNumber, len(scenario.Steps), step.Kind)
		stepStart := time.Now()
		stepCtx, cancel := context.WithTimeout(ctx, r.timeout)
		err := r.runStep(stepCtx, state, step)
		cancel()
		if err != nil {
			return fmt.Errorf("step %d (%s): %w", stepNumber, step.Kind, err)
		}
		r.logf("step %d/%d done: %s (%s)", stepNumber, len(scenario.Steps), step.Kind, time.Since(stepStart))
	}
	r.logf("scenario done: %s", scenario.Name)
	return nil
}

func (r *Runner) logf(format string, args ...any) {
	if !r.verbose || r.logger == nil {
		return
	}
	r.logger.Printf(format, args...)
}
