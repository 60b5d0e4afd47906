package backend

import (
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Constructor takes a backend-specific config string (possibly empty)
// and returns a Backend.
type Constructor func(config string) (Backend, error)

var (
	registeredConstructors = make(map[string]Constructor)
	firstRegistered        string
)

// Register adds a backend under the given name, typically from an init
// function of the backend's package. The first registered backend
// becomes the fallback when no configuration is given.
func Register(name string, constructor Constructor) {
	if _, dup := registeredConstructors[name]; dup {
		panic("backend: duplicate registration of " + name)
	}
	if len(registeredConstructors) == 0 {
		firstRegistered = name
	}
	registeredConstructors[name] = constructor
}

// Registered returns the names of all registered backends, sorted.
func Registered() []string {
	names := make([]string, 0, len(registeredConstructors))
	for name := range registeredConstructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultConfig is used by New when EBB_BACKEND is not set.
//
// See NewWithConfig for the format of the configuration string.
var DefaultConfig string

// EnvVar is the environment variable holding the default backend
// configuration, formatted as "<backend_name>:<backend_config>".
const EnvVar = "EBB_BACKEND"

// New returns a Backend using the default selection order:
//
//  1. The EBB_BACKEND environment variable, if set.
//  2. The DefaultConfig variable, if non-empty.
//  3. The first registered backend with an empty config.
func New() (Backend, error) {
	if config, found := os.LookupEnv(EnvVar); found {
		return NewWithConfig(config)
	}
	if DefaultConfig != "" {
		return NewWithConfig(DefaultConfig)
	}
	return NewWithConfig("")
}

// NewWithConfig constructs a backend from a configuration string of the
// form "<backend_name>:<backend_config>". An empty name selects the
// first registered backend; the config part is passed through to the
// backend's constructor.
func NewWithConfig(config string) (Backend, error) {
	if len(registeredConstructors) == 0 {
		return nil, errors.New(`no registered backends -- import one, e.g. _ "github.com/ebb-ml/ebb/backend/cpu"`)
	}

	backendName := firstRegistered
	backendConfig := config
	if idx := strings.Index(config, ":"); idx != -1 {
		backendName = config[:idx]
		backendConfig = config[idx+1:]
	} else if config != "" {
		// A bare name with no colon selects that backend.
		if _, known := registeredConstructors[config]; known {
			backendName = config
			backendConfig = ""
		}
	}

	constructor, found := registeredConstructors[backendName]
	if !found {
		return nil, errors.Errorf("unknown backend %q in configuration %q (registered: %s)",
			backendName, config, strings.Join(Registered(), ", "))
	}
	return constructor(backendConfig)
}
