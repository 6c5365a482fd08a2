package app

import (
	"fmt"
	"sort"

	"github.com/specialistvlad/eqasmc/internal/platform"
	"github.com/specialistvlad/eqasmc/internal/qerr"
	"github.com/specialistvlad/eqasmc/internal/target"
	"github.com/specialistvlad/eqasmc/internal/target/cc"
	"github.com/specialistvlad/eqasmc/internal/target/cclight"
)

// TargetFactory prepares a backend for one program compilation.
type TargetFactory func(m *platform.Model) (target.Target, error)

// coreTargets is the definitive list of all backends compiled into the
// eqasmc binary.
var coreTargets = map[string]TargetFactory{
	cclight.Name: func(m *platform.Model) (target.Target, error) { return cclight.New(m) },
	cc.Name:      func(m *platform.Model) (target.Target, error) { return cc.New(m) },
}

// TargetNames lists the registered backends in sorted order.
func TargetNames() []string {
	names := make([]string, 0, len(coreTargets))
	for n := range coreTargets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// NewTarget returns a fresh instance of the backend called name.
func NewTarget(name string, m *platform.Model) (target.Target, error) {
	f, ok := coreTargets[name]
	if !ok {
		return nil, qerr.New(qerr.ErrConfiguration, "unknown target '%s', expected one of %v", name, TargetNames())
	}
	t, err := f(m)
	if err != nil {
		return nil, fmt.Errorf("preparing target %s: %w", name, err)
	}
	return t, nil
}
