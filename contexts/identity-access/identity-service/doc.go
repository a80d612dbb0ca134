// Package identity implements the identity resolver inside Paideia.
//
// Layering:
// - domain: user/principal/session entities and errors
// - application: credential resolution and session use-cases using explicit ports
// - ports: stable boundaries for persistence
// - adapters: concrete postgres and memory implementations
// - transport: module-private DTOs for HTTP contracts
//
// Boundary notes:
// - Resolution is a pure lookup: bad or missing credentials degrade to the
//   anonymous principal, never to an error.
// - User rows are read-only here; all user writes run through the
//   profile-lifecycle service.
// - The role and principal vocabulary defined in domain/entities is shared
//   by the other identity-access services.
package identity
