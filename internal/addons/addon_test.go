package addons

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/imamik/kubelift/internal/config"
)

// testConfig builds a cluster config with the requested node counts.
// Control-plane addresses are 10.0.1.x, workers 10.0.2.x.
func testConfig(controlPlanes, workers int) *config.Config {
	cfg := &config.Config{ClusterName: "test"}
	for i := 0; i < controlPlanes; i++ {
		cfg.Nodes = append(cfg.Nodes, config.NodeConfig{
			Name:    fmt.Sprintf("cp-%d", i+1),
			Role:    config.RoleControlPlane,
			Address: fmt.Sprintf("10.0.1.%d", i+1),
		})
	}
	for i := 0; i < workers; i++ {
		cfg.Nodes = append(cfg.Nodes, config.NodeConfig{
			Name:    fmt.Sprintf("worker-%d", i+1),
			Role:    config.RoleWorker,
			Address: fmt.Sprintf("10.0.2.%d", i+1),
		})
	}
	return cfg
}

// fakeApplier records manifests and secrets instead of touching a cluster.
type fakeApplier struct {
	manifests []string
	secrets   map[string]map[string][]byte
	applyErr  error
}

func (f *fakeApplier) Apply(_ context.Context, manifest string) error {
	if f.applyErr != nil {
		return f.applyErr
	}
	f.manifests = append(f.manifests, manifest)
	return nil
}

func (f *fakeApplier) CreateSecret(_ context.Context, namespace, name string, data map[string][]byte) error {
	if f.secrets == nil {
		f.secrets = make(map[string]map[string][]byte)
	}
	f.secrets[namespace+"/"+name] = data
	return nil
}

func TestVersionOr(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "1.17.0", versionOr("1.17.0", "1.16.5"))
	assert.Equal(t, "1.16.5", versionOr("", "1.16.5"))
}
