// Package manifest defines the typed, immutable in-memory model of module
// and pipeline manifests, plus the Library cache that loads and validates
// them. Raw document forms (HCL) never escape the loader boundary; every
// structure in this package has been validated once, at load time.
package manifest
