// Package matrix assembles and solves the per-timestep linear system of the
// finite volume cable equation.
//
// The system is symmetric and its sparsity pattern is the compartment
// tree: row i has a diagonal entry and one off-diagonal entry per tree
// neighbour. [Matrix.Solve] performs Hines elimination, a Gaussian
// elimination ordered from the leaves toward the root followed by
// substitution from the root back to the leaves, in time linear in the
// number of compartments for any branching structure.
package matrix
