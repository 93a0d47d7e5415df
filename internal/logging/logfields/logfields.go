// Package logfields defines the logging field names shared across packages.
package logfields

const (
	// LogSubsys is the field denoting the subsystem when logging
	LogSubsys = "subsys"

	// Round is the 1-based number of the generation round
	Round = "round"

	// Phase is the pipeline phase being run
	Phase = "phase"

	// Final marks the last round of a run
	Final = "final"

	// Package is the import path of a package
	Package = "package"

	// Decl is the qualified name of a declaration
	Decl = "decl"

	// Service is a service name
	Service = "service"

	// Group is the qualified name of a factory group
	Group = "group"

	// Artifact is the name of a generated type
	Artifact = "artifact"

	// File is a path on disk
	File = "file"

	// Position is file:line:col of a declaration
	Position = "pos"

	// Count is a number of items
	Count = "count"

	// Roots is the number of root declarations of a round
	Roots = "roots"
)
