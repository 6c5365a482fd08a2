// Package hcl provides the HCL implementation of config.Loader. It parses
// platform and program files, decodes them through gohcl schema structs and
// translates the result into the format-agnostic config model.
//
// Instruction blocks of a kernel (gate, classical, wait, nop) are decoded in
// source order, whatever their type, because that order is the program
// order of the kernel.
package hcl
