// Package app contains the compiler's application logic: it loads the
// platform and program, compiles the program for the selected backend and
// writes the results, decoupled from any specific entrypoint like a CLI.
package app
