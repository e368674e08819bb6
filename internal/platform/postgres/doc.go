// Package postgres implements the remote profile store on PostgreSQL.
//
// The remote store is the system of record for user profiles. It is reachable
// only while online; callers degrade to local-only operation when it is not.
// All writes after creation are merge-patches of named fields, never
// whole-document overwrites.
package postgres
