package cpu

import (
	"math"
	"testing"

	"github.com/ebb-ml/ebb/internal/backend"
	"github.com/ebb-ml/ebb/internal/tensor"
)

func mustF32(t *testing.T, c *CPUBackend, shape tensor.Shape, data []float32) *tensor.Handle {
	t.Helper()
	h, err := tensor.FromSlice(data, shape, c.Allocator())
	if err != nil {
		t.Fatalf("FromSlice(%v): %v", shape, err)
	}
	return h
}

func mustF64(t *testing.T, c *CPUBackend, shape tensor.Shape, data []float64) *tensor.Handle {
	t.Helper()
	h, err := tensor.FromSlice(data, shape, c.Allocator())
	if err != nil {
		t.Fatalf("FromSlice(%v): %v", shape, err)
	}
	return h
}

func mustI32(t *testing.T, c *CPUBackend, shape tensor.Shape, data []int32) *tensor.Handle {
	t.Helper()
	h, err := tensor.FromSlice(data, shape, c.Allocator())
	if err != nil {
		t.Fatalf("FromSlice(%v): %v", shape, err)
	}
	return h
}

func f32Close(a, b []float32, tol float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		d := a[i] - b[i]
		if d < 0 {
			d = -d
		}
		if d > tol {
			return false
		}
	}
	return true
}

func f64Close(a, b []float64, tol float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}

func TestNewWithConfig(t *testing.T) {
	tests := []struct {
		config  string
		wantErr bool
	}{
		{"", false},
		{"serial", false},
		{"4", false},
		{"0", true},
		{"fast", true},
	}
	for _, tt := range tests {
		c, err := NewWithConfig(tt.config)
		if tt.wantErr {
			if err == nil {
				t.Errorf("NewWithConfig(%q): expected error, got backend %v", tt.config, c)
			}
			continue
		}
		if err != nil {
			t.Errorf("NewWithConfig(%q): %v", tt.config, err)
			continue
		}
		if c.Name() != "cpu" {
			t.Errorf("NewWithConfig(%q).Name() = %q, want cpu", tt.config, c.Name())
		}
		if c.Device() != backend.CPU {
			t.Errorf("NewWithConfig(%q).Device() = %v, want CPU", tt.config, c.Device())
		}
	}
}

func TestRegistryConstructsCPU(t *testing.T) {
	b, err := backend.NewWithConfig("cpu:serial")
	if err != nil {
		t.Fatalf("NewWithConfig(cpu:serial): %v", err)
	}
	if _, ok := b.(*CPUBackend); !ok {
		t.Fatalf("registry returned %T, want *CPUBackend", b)
	}
	if b.Description() == "" {
		t.Error("empty backend description")
	}
}
