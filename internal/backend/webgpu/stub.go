//go:build !windows

package webgpu

import (
	"fmt"

	"github.com/ebb-ml/ebb/internal/backend"
)

// newBackend reports the backend as unavailable. The wgpu-native
// library only ships for windows; see backend.go for the real
// implementation.
func newBackend(string) (backend.Backend, error) {
	return nil, fmt.Errorf("webgpu: backend not available on this platform (windows only)")
}

func available() bool {
	return false
}
