// Package emit serializes the bundles of a kernel into timed instruction
// lines. The walk is shared by every backend; a Formatter supplies the
// target spelling.
package emit

import (
	"errors"
	"strings"

	"github.com/specialistvlad/eqasmc/internal/bundle"
	"github.com/specialistvlad/eqasmc/internal/ir"
	"github.com/specialistvlad/eqasmc/internal/qerr"
)

// DefaultInlineWaitLimit is the largest cycle gap written as a line prefix.
const DefaultInlineWaitLimit = 7

// Indent prefixes every instruction line.
const Indent = "    "

// Formatter spells bundles for one target.
type Formatter interface {
	// Quantum renders the sections of a quantum bundle.
	Quantum(b bundle.Bundle) (string, error)
	Classical(c ir.Classical) (string, error)
	Wait(cycles int) string
	// Timed prefixes a quantum bundle with the cycles elapsed since the
	// previous one.
	Timed(delta int, body string) string
}

// Commenter is implemented by formatters that annotate every bundle.
type Commenter interface {
	BundleComment(index int, b bundle.Bundle) string
}

// Options tunes the shared walk.
type Options struct {
	// InlineWaitLimit is the largest delta encoded inline; zero means
	// DefaultInlineWaitLimit.
	InlineWaitLimit int
	// FetchPad writes two single-cycle waits, instead of the computed gap,
	// before a result fetch that directly follows a quantum bundle.
	FetchPad bool
}

// Kernel writes the bundles of one kernel to sb. The cursor starts at cycle
// 0; after the last bundle a wait covers the rest of its duration.
func Kernel(sb *strings.Builder, bundles []bundle.Bundle, f Formatter, opts Options) error {
	limit := opts.InlineWaitLimit
	if limit <= 0 {
		limit = DefaultInlineWaitLimit
	}
	commenter, _ := f.(Commenter)

	cursor := 0
	prevQuantum := false
	for i, b := range bundles {
		if i > 0 && b.StartCycle < bundles[i-1].StartCycle {
			return qerr.New(qerr.ErrInconsistentBundle, "bundle at cycle %d follows cycle %d", b.StartCycle, bundles[i-1].StartCycle)
		}
		if len(b.Sections) == 0 {
			return qerr.New(qerr.ErrInconsistentBundle, "empty bundle at cycle %d", b.StartCycle)
		}
		if commenter != nil {
			sb.WriteString(commenter.BundleComment(i, b))
			sb.WriteByte('\n')
		}

		delta := b.StartCycle - cursor
		if b.IsClassical() {
			c, ok := b.Sections[0].First().(ir.Classical)
			if !ok || len(b.Sections) != 1 || len(b.Sections[0].Items) != 1 {
				return qerr.New(qerr.ErrInconsistentBundle, "classical bundle at cycle %d is not a single instruction", b.StartCycle)
			}
			text, err := f.Classical(c)
			if err != nil {
				return withInstr(err, c)
			}
			switch {
			case opts.FetchPad && c.Op == ir.OpFetchResult && prevQuantum:
				// fmr stalls until the result is in; the pad replaces delta.
				line(sb, f.Wait(1))
				line(sb, f.Wait(1))
			case delta > 1:
				line(sb, f.Wait(delta))
			}
			line(sb, text)
			prevQuantum = false
		} else {
			text, err := f.Quantum(b)
			if err != nil {
				return err
			}
			if delta > limit {
				line(sb, f.Wait(delta-1))
				sb.WriteString(f.Timed(1, text))
			} else {
				sb.WriteString(f.Timed(delta, text))
			}
			sb.WriteByte('\n')
			prevQuantum = true
		}
		cursor += delta
	}

	if n := len(bundles); n > 0 && bundles[n-1].Duration > 1 {
		line(sb, f.Wait(bundles[n-1].Duration))
	}
	return nil
}

func line(sb *strings.Builder, text string) {
	sb.WriteString(Indent)
	sb.WriteString(text)
	sb.WriteByte('\n')
}

// Lines writes pre-rendered fragment instructions, one per line.
func Lines(sb *strings.Builder, lines []string) {
	for _, l := range lines {
		line(sb, l)
	}
}

func withInstr(err error, ins ir.Instruction) error {
	var qe *qerr.Error
	if errors.As(err, &qe) && qe.Instruction == "" {
		return qe.At(ins.String())
	}
	return err
}
