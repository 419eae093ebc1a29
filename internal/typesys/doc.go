// Package typesys defines the vocabulary of port and parameter type tags
// used by module manifests, and the compatibility rules the graph builder
// applies when wiring one module's output port to another's input port.
package typesys
