// Package commands holds the cobra command tree of the bundlegen binary.
//
//	bundlegen generate [dir...]   run the generation rounds over package directories
//	bundlegen version             print the build version
//
// Generate reads bundlegen.yaml from the working directory when present.
// Flags given on the command line take precedence over the file.
package commands
