//go:build tools

package tools

// mockery v3 runs as an installed binary, so no tool imports are tracked
// here. The mocks under pkg/*/mocks are generated from the Sampler and
// Advertiser interfaces.
