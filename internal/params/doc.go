// Package params merges the three layers of parameter values for a module
// instance — module defaults, pipeline set_parameters, and job-level
// overrides — into one concrete configuration. Resolution is pure and
// deterministic: identical inputs always yield an identical resolved map.
package params
