// Package glm fits generalized linear models with the quasi-Newton
// minimizer in package qn.
//
// A fit is assembled from three layers:
//
//   - a Loss (Logistic, Squared or Softmax) that evaluates the mean loss and
//     its gradient over bound data, using a C×N scratch matrix for the
//     linear predictor Z = W·Xᵀ + b;
//   - an optional Regularized wrapper adding l2·‖w‖² when l2 > 0;
//   - a WithData objective binding the loss to (X, y, z) so that the
//     minimizer only sees w ↦ (f(w), ∇f(w)).
//
// QNFit and QNPredict are the entry points. The weight vector holds C blocks
// of D feature weights, class c at w[c*D:(c+1)*D], followed by C intercepts
// when FitIntercept is set.
//
// Mismatched class counts, unknown loss types and wrongly sized buffers are
// programming errors: the entry points panic with an assertion failure
// instead of returning an error.
package glm
