package bundle

import (
	"fmt"
	"sort"

	"github.com/specialistvlad/eqasmc/internal/ir"
	"github.com/specialistvlad/eqasmc/internal/qerr"
)

// NopOpcode is the target spelling of a quantum no-op.
const NopOpcode = "qnop"

// Resolver maps a symbolic gate name onto its target opcode and arity.
type Resolver interface {
	Resolve(name string) (opcode string, arity int, err error)
}

// identity is what two sections must share to be merged.
type identity struct {
	opcode string
	arity  int
}

// Identity returns the target opcode and arity of a quantum or nop instruction.
func Identity(r Resolver, ins ir.Instruction) (string, int, error) {
	switch v := ins.(type) {
	case ir.Quantum:
		return r.Resolve(v.Name)
	case ir.Nop:
		return NopOpcode, 0, nil
	case ir.Classical:
		return string(v.Op), len(v.Cregs), nil
	case ir.Wait:
		return "", 0, qerr.New(qerr.ErrInconsistentBundle, "wait instructions are not bundled")
	default:
		panic(fmt.Sprintf("bundle: unhandled instruction %T", ins))
	}
}

// Merge splices sections that resolve to the same opcode and arity, drops
// the emptied ones and sorts what is left by opcode, descending. A classical
// instruction must be alone in its bundle.
func Merge(bundles []Bundle, r Resolver) ([]Bundle, error) {
	out := make([]Bundle, 0, len(bundles))
	for _, b := range bundles {
		merged, err := mergeBundle(b, r)
		if err != nil {
			return nil, err
		}
		out = append(out, merged)
	}
	return out, nil
}

func mergeBundle(b Bundle, r Resolver) (Bundle, error) {
	if err := checkIsolation(b); err != nil {
		return Bundle{}, err
	}

	sections := make([]Section, len(b.Sections))
	ids := make([]identity, len(b.Sections))
	for i, s := range b.Sections {
		sections[i] = Section{Items: append([]Item(nil), s.Items...)}
		op, arity, err := Identity(r, s.First())
		if err != nil {
			return Bundle{}, err
		}
		ids[i] = identity{op, arity}
	}

	for i := range sections {
		if len(sections[i].Items) == 0 || sections[i].IsClassical() {
			continue
		}
		for j := i + 1; j < len(sections); j++ {
			if len(sections[j].Items) == 0 || sections[j].IsClassical() || ids[i] != ids[j] {
				continue
			}
			sections[i].Items = append(sections[i].Items, sections[j].Items...)
			sections[j].Items = nil
		}
	}

	kept := sections[:0]
	keptIDs := ids[:0]
	for i, s := range sections {
		if len(s.Items) > 0 {
			kept = append(kept, s)
			keptIDs = append(keptIDs, ids[i])
		}
	}

	idx := make([]int, len(kept))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return keptIDs[idx[a]].opcode > keptIDs[idx[b]].opcode })
	sorted := make([]Section, len(kept))
	for i, k := range idx {
		sorted[i] = kept[k]
	}

	return Bundle{StartCycle: b.StartCycle, Duration: b.Duration, Sections: sorted}, nil
}

func checkIsolation(b Bundle) error {
	for _, s := range b.Sections {
		if !s.IsClassical() {
			continue
		}
		if len(b.Sections) > 1 {
			return qerr.New(qerr.ErrInconsistentBundle,
				"classical instruction shares cycle %d with %d other sections", b.StartCycle, len(b.Sections)-1).At(s.First().String())
		}
		if len(s.Items) > 1 {
			return qerr.New(qerr.ErrInconsistentBundle,
				"classical section at cycle %d holds %d instructions", b.StartCycle, len(s.Items)).At(s.First().String())
		}
	}
	return nil
}
