// Package invoke defines the capability interface through which the
// engine hands a fully resolved configuration to an external module
// executable and interprets its success/failure outcome. The engine only
// constructs the config and reads the result; the executable itself is a
// pluggable external collaborator.
package invoke
