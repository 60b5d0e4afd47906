package webgpu

import (
	"slices"
	"testing"

	"github.com/ebb-ml/ebb/internal/backend"
)

func TestRegistryContainsWebGPU(t *testing.T) {
	if !slices.Contains(backend.Registered(), "webgpu") {
		t.Fatalf("Registered() = %v, missing webgpu", backend.Registered())
	}
}

func TestConstructionMatchesAvailability(t *testing.T) {
	b, err := backend.NewWithConfig("webgpu")
	if !IsAvailable() {
		if err == nil {
			t.Fatal("construction succeeded without an adapter")
		}
		return
	}
	if err != nil {
		t.Fatalf("NewWithConfig(webgpu) failed despite available adapter: %v", err)
	}
	if b.Name() != "webgpu" {
		t.Errorf("Name() = %q, want webgpu", b.Name())
	}
	if r, ok := b.(interface{ Release() }); ok {
		r.Release()
	}
}
