// Package core holds the shared types of the elastic-net solver: the opaque
// optimizer state vector, the row/source data abstraction, hyperparameters
// with validation, the pluggable kernel boundary and the error taxonomy.
//
// Everything in this package is consumed by the solver, lambdapath and
// statestore packages; it has no dependencies on them.
package core
