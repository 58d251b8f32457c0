package scenario

// runnerDeps bundles injectable dependencies for runner construction.
type runnerDeps struct {
	env     scenarioEnv
	clock   *scenarioClock
	cleanup func() error
}
