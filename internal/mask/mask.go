// Package mask allocates the s (qubit set) and t (qubit-pair set) registers
// used to address multi-operand instructions.
package mask

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/specialistvlad/eqasmc/internal/qerr"
)

// Default pool capacities.
const (
	DefaultSingleCapacity = 32
	DefaultPairCapacity   = 64
)

// Pair is an ordered qubit pair, as written by a two-qubit instruction.
type Pair struct {
	A, B int
}

// Options configures an Allocator.
type Options struct {
	SingleCapacity int
	PairCapacity   int
	// Directed keeps (a, b) and (b, a) apart.
	Directed bool
}

// Allocator hands out mask registers. One Allocator serves one program; it
// must not be shared between independent compilations without Reset.
type Allocator struct {
	opts    Options
	singles map[string]int
	pairs   map[string]int
	lines   []string
	sCount  int
	tCount  int
}

// New returns an empty allocator. Non-positive capacities fall back to the
// defaults.
func New(opts Options) *Allocator {
	if opts.SingleCapacity <= 0 {
		opts.SingleCapacity = DefaultSingleCapacity
	}
	if opts.PairCapacity <= 0 {
		opts.PairCapacity = DefaultPairCapacity
	}
	a := &Allocator{opts: opts}
	a.Reset()
	return a
}

// Reset forgets every allocation.
func (a *Allocator) Reset() {
	a.singles = make(map[string]int)
	a.pairs = make(map[string]int)
	a.lines = nil
	a.sCount = 0
	a.tCount = 0
}

// QubitSet returns the s register holding qubits, allocating one on first use.
func (a *Allocator) QubitSet(qubits []int) (int, error) {
	if len(qubits) == 0 {
		return 0, qerr.New(qerr.ErrMalformedCircuit, "empty qubit set")
	}
	set := slices.Clone(qubits)
	sort.Ints(set)
	set = slices.Compact(set)

	key := fmt.Sprint(set)
	if id, ok := a.singles[key]; ok {
		return id, nil
	}
	if a.sCount >= a.opts.SingleCapacity {
		return 0, qerr.New(qerr.ErrRegisterExhaustion, "all %d s registers in use", a.opts.SingleCapacity)
	}

	id := a.sCount
	a.sCount++
	a.singles[key] = id
	parts := make([]string, len(set))
	for i, q := range set {
		parts[i] = fmt.Sprint(q)
	}
	a.lines = append(a.lines, fmt.Sprintf("smis s%d, {%s}", id, strings.Join(parts, ", ")))
	return id, nil
}

// PairSet returns the t register holding pairs, allocating one on first use.
func (a *Allocator) PairSet(pairs []Pair) (int, error) {
	if len(pairs) == 0 {
		return 0, qerr.New(qerr.ErrMalformedCircuit, "empty qubit-pair set")
	}
	set := make([]Pair, len(pairs))
	for i, p := range pairs {
		if !a.opts.Directed && p.B < p.A {
			p.A, p.B = p.B, p.A
		}
		set[i] = p
	}
	sort.Slice(set, func(i, j int) bool {
		if set[i].A != set[j].A {
			return set[i].A < set[j].A
		}
		return set[i].B < set[j].B
	})
	set = slices.Compact(set)

	parts := make([]string, len(set))
	for i, p := range set {
		parts[i] = fmt.Sprintf("(%d, %d)", p.A, p.B)
	}
	key := strings.Join(parts, ", ")
	if id, ok := a.pairs[key]; ok {
		return id, nil
	}
	if a.tCount >= a.opts.PairCapacity {
		return 0, qerr.New(qerr.ErrRegisterExhaustion, "all %d t registers in use", a.opts.PairCapacity)
	}

	id := a.tCount
	a.tCount++
	a.pairs[key] = id
	a.lines = append(a.lines, fmt.Sprintf("smit t%d, {%s}", id, key))
	return id, nil
}

// Allocated returns the number of s and t registers in use.
func (a *Allocator) Allocated() (singles, pairs int) { return a.sCount, a.tCount }

// Render returns one declaration line per register, in allocation order.
func (a *Allocator) Render() string {
	var sb strings.Builder
	for _, l := range a.lines {
		sb.WriteString(l)
		sb.WriteByte('\n')
	}
	return sb.String()
}
