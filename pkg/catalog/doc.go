// Package catalog implements authors, books, libraries and book ownership.
//
// # Overview
//
// Books are keyed by a 13-character ISBN and reference an author. Libraries
// hold books through a many-to-many relation and each library has at most one
// librarian. Books optionally belong to an owning user.
//
// # Ownership
//
// Two bulk operations manage book ownership, each in a single transaction:
//
//   - AssignOwnersRoundRobin cycles through a list of users and hands each
//     unowned book to the next one; owned books are skipped.
//   - ReassignAllToAdmin gives every book, owned or not, to one user.
//
// Running the round-robin pass after a full reassignment is a no-op, since no
// unowned books remain.
//
// # Validation
//
// Writes validate all fields at once: missing title, malformed ISBN and a
// future publication year are reported together as field-scoped errors.
package catalog
