package config

import "context"

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// LoadPlatform reads a platform description and translates it into the
	// format-agnostic model.
	LoadPlatform(ctx context.Context, path string) (*Platform, error)

	// LoadProgram reads a program description.
	LoadProgram(ctx context.Context, path string) (*Program, error)
}
