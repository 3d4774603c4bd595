// Package structure holds the domain records shared by every alignment
// stage: input vertices and elements, the element snap-policy table, axis
// labels, discovered axis lines and aligned output vertices.
//
// Records in this package are values. Alignment stages copy them into new
// output records and never mutate their inputs.
package structure
