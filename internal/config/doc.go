// Package config holds the format-agnostic description of a compilation:
// the platform resource model and the program to compile.
//
// Loaders for concrete file formats (see internal/hcl) translate their input
// into these types; nothing downstream of the loader knows which format the
// configuration came from.
package config
