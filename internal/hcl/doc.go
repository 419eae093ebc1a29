// Package hcl provides the concrete HCL implementation of the manifest
// Source interface. It is responsible for manifest file discovery, HCL
// parsing, and translation of the raw schema structures into the typed
// manifest model.
package hcl
