// Package accesspolicy implements per-resource authorization inside Paideia.
//
// Layering:
// - domain: policy shapes, decisions, and the pure evaluator
// - application: resource registry plus the visibility-scoped operations
// - ports: executor boundary for scoped queries
// - adapters: concrete postgres and memory executors
// - transport: module-private DTOs for HTTP contracts
//
// Boundary notes:
// - The evaluator is resource-local: each resource type carries exactly one
//   of four canonical shapes, and shapes never compose across resources.
// - Deny short-circuits in the application layer; executors are never
//   invoked with a Deny decision.
// - Caller filters conjoin with the policy predicate using AND only.
package accesspolicy
