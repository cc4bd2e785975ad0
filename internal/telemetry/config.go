package telemetry

import (
	"os"
	"strings"
)

// DefaultArtifactsDir holds events.jsonl when AGT_ARTIFACTS_DIR is unset.
const DefaultArtifactsDir = ".agent"

var (
	observeEnabled bool
	artifactsDir   string
)

func init() {
	// Read once at process start; tests and the CLI may flip it later via env or SetObserve.
	observeEnabled = os.Getenv("AGT_OBSERVE_JSON") == "1"
}

// ObserveEnabled reports whether JSONL emission is on.
func ObserveEnabled() bool {
	if v, ok := os.LookupEnv("AGT_OBSERVE_JSON"); ok {
		return v == "1"
	}
	return observeEnabled
}

// SetObserve overrides the startup value. An explicit AGT_OBSERVE_JSON still wins.
func SetObserve(on bool) { observeEnabled = on }

// SetArtifactsDir replaces the default directory. An explicit AGT_ARTIFACTS_DIR
// still wins; an empty dir restores the default.
func SetArtifactsDir(dir string) { artifactsDir = strings.TrimSpace(dir) }

// ArtifactsDir returns the directory events are written to.
func ArtifactsDir() string {
	if v := strings.TrimSpace(os.Getenv("AGT_ARTIFACTS_DIR")); v != "" {
		return v
	}
	if artifactsDir != "" {
		return artifactsDir
	}
	return DefaultArtifactsDir
}
