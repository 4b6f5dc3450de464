// Package compartment discretises a cell into finite volumes.
//
// Every segment is cut into compartments; each compartment is represented
// by one node of a flat arena. A cable of length L with n compartments
// yields nodes at fractions k/n (k = 1..n) along the cable, and the node
// at fraction 0 is the distal node of the parent segment. The soma is one
// node. The membrane between two adjacent nodes is split at its midpoint
// and each half is added to the control volume of the nearer node.
//
// Parent indices always precede child indices, so index order is a valid
// root-to-leaves ordering.
package compartment
