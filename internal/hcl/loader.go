package hcl

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/eqasmc/internal/config"
	"github.com/specialistvlad/eqasmc/internal/ctxlog"
	"github.com/specialistvlad/eqasmc/internal/qerr"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

func NewLoader() *Loader {
	return &Loader{}
}

var _ config.Loader = (*Loader)(nil)

// LoadPlatform reads the single platform block of the file at path.
func (l *Loader) LoadPlatform(ctx context.Context, path string) (*config.Platform, error) {
	src, err := readFile(path)
	if err != nil {
		return nil, err
	}
	p, err := ParsePlatform(src, path)
	if err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Debug("Platform loaded.", "path", path, "platform", p.Name,
		"instructions", len(p.Instructions), "instruments", len(p.Instruments), "targets", len(p.Targets))
	return p, nil
}

// LoadProgram reads the single program block of the file at path.
func (l *Loader) LoadProgram(ctx context.Context, path string) (*config.Program, error) {
	src, err := readFile(path)
	if err != nil {
		return nil, err
	}
	p, err := ParseProgram(src, path)
	if err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Debug("Program loaded.", "path", path, "program", p.Name, "kernels", len(p.Kernels))
	return p, nil
}

func readFile(path string) ([]byte, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, qerr.New(qerr.ErrConfiguration, "reading %s: %s", path, err)
	}
	return src, nil
}

// ParsePlatform decodes platform source; filename is used in diagnostics.
func ParsePlatform(src []byte, filename string) (*config.Platform, error) {
	block, err := uniqueBlock(src, filename, platformFileSchema, "platform")
	if err != nil {
		return nil, err
	}

	var pb platformBlock
	if diags := gohcl.DecodeBody(block.Body, nil, &pb); diags.HasErrors() {
		return nil, diagErr(diags)
	}
	pb.Name = block.Labels[0]

	p, diags := translatePlatform(&pb)
	if diags.HasErrors() {
		return nil, diagErr(diags)
	}
	p.Source = filename
	return p, nil
}

// ParseProgram decodes program source; filename is used in diagnostics.
func ParseProgram(src []byte, filename string) (*config.Program, error) {
	block, err := uniqueBlock(src, filename, programFileSchema, "program")
	if err != nil {
		return nil, err
	}

	p, diags := decodeProgram(block)
	if diags.HasErrors() {
		return nil, diagErr(diags)
	}
	p.Source = filename
	return p, nil
}

func uniqueBlock(src []byte, filename string, schema *hcl.BodySchema, name string) (*hcl.Block, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, diagErr(diags)
	}
	content, diags := file.Body.Content(schema)
	if diags.HasErrors() {
		return nil, diagErr(diags)
	}
	block, diags := findUniqueBlock(content.Blocks, name)
	if diags.HasErrors() {
		return nil, diagErr(diags)
	}
	if block == nil {
		return nil, qerr.New(qerr.ErrConfiguration, "%s: no %s block", filename, name)
	}
	return block, nil
}

// findUniqueBlock returns the block of the given type, with a diagnostic if
// there is more than one. It returns nil when there is none.
func findUniqueBlock(blocks hcl.Blocks, name string) (*hcl.Block, hcl.Diagnostics) {
	var found *hcl.Block
	var diags hcl.Diagnostics

	for _, block := range blocks {
		if block.Type != name {
			continue
		}
		if found != nil {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  fmt.Sprintf("Duplicate %q block", name),
				Detail:   fmt.Sprintf("Only one %q block is allowed per file.", name),
				Subject:  &block.DefRange,
			})
			continue
		}
		found = block
	}
	return found, diags
}

func diagErr(diags hcl.Diagnostics) error {
	return qerr.New(qerr.ErrConfiguration, "%s", diags.Error())
}
