// Package snapshot dumps the schedule of a compiled program as an HCL
// document, for tools that trace or simulate the emitted bundles.
package snapshot

import (
	"io"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/specialistvlad/eqasmc/internal/bundle"
	"github.com/specialistvlad/eqasmc/internal/compiler"
	"github.com/zclconf/go-cty/cty"
)

// Render returns the snapshot document of res.
//
//	program "name" {
//	  target    = "cc_light"
//	  scheduler = "asap"
//	  kernel "k" {
//	    instructions = 3
//	    length       = 9
//	    bundle {
//	      start_cycle = 0
//	      duration    = 1
//	      sections    = [["x q0", "x q2"], ["y q1"]]
//	    }
//	  }
//	}
func Render(res *compiler.Result) []byte {
	f := hclwrite.NewEmptyFile()
	prog := f.Body().AppendNewBlock("program", []string{res.Program}).Body()
	prog.SetAttributeValue("target", cty.StringVal(res.Target))
	prog.SetAttributeValue("scheduler", cty.StringVal(string(res.Policy)))

	for _, k := range res.Kernels {
		prog.AppendNewline()
		kb := prog.AppendNewBlock("kernel", []string{k.Name}).Body()
		kb.SetAttributeValue("instructions", cty.NumberIntVal(int64(k.Instructions)))
		kb.SetAttributeValue("length", cty.NumberIntVal(int64(k.Cycles())))
		for _, b := range k.Bundles {
			bb := kb.AppendNewBlock("bundle", nil).Body()
			bb.SetAttributeValue("start_cycle", cty.NumberIntVal(int64(b.StartCycle)))
			bb.SetAttributeValue("duration", cty.NumberIntVal(int64(b.Duration)))
			bb.SetAttributeValue("sections", sections(b))
		}
	}
	return hclwrite.Format(f.Bytes())
}

// Write renders res to w.
func Write(w io.Writer, res *compiler.Result) error {
	_, err := w.Write(Render(res))
	return err
}

func sections(b bundle.Bundle) cty.Value {
	if len(b.Sections) == 0 {
		return cty.ListValEmpty(cty.List(cty.String))
	}
	out := make([]cty.Value, len(b.Sections))
	for i, s := range b.Sections {
		items := make([]cty.Value, len(s.Items))
		for j, it := range s.Items {
			items[j] = cty.StringVal(it.Instr.String())
		}
		out[i] = cty.ListVal(items)
	}
	return cty.ListVal(out)
}
