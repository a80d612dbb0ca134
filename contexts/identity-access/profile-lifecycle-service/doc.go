// Package profilelifecycle owns every write to the users table and its
// role-specific satellite tables (admin_profiles, instructor_profiles,
// trainee_profiles).
//
// The core invariant: a user with role admin, instructor, or trainee has
// exactly one row in the matching satellite table and none in the others;
// service accounts have none anywhere. Each lifecycle transition (create,
// role change, delete) runs as one transaction planned by domain/services,
// so the invariant holds at every commit point. Role changes lock the user
// row first and plan against the role read under that lock.
//
// User deletion is driven by the relation registry in domain/entities:
// attribution references are nulled out, strictly owned rows are removed,
// and any failed removal aborts the whole deletion.
//
// The consistency auditor in application/workers sweeps for users missing
// their satellite and repairs them with the same deterministic defaults the
// create path uses, via insert-if-absent. Satellites pointing at missing or
// re-roled users are reported, not touched.
//
// Lifecycle events travel through a transactional outbox relayed to the
// in-process bus by application/workers.OutboxRelay.
package profilelifecycle
