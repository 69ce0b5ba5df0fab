// Package optim wraps gonum's local minimisers and adds the global search
// strategies the camera fits need.
//
//   - [ConjugateGradient], [LBFGS]: local descent on a smooth objective
//   - [BasinHopping]: perturb-and-descend search for objectives with many
//     local minima
//   - [GridSearch]: exhaustive search over a small named parameter grid,
//     used to pick starting points
//
// Objectives are plain functions of a parameter vector. A nil gradient is
// replaced by a central finite-difference approximation.
package optim
