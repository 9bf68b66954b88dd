// Package database provides PostgreSQL connectivity and repositories.
//
// Uses pgx for connection pooling and tern for migrations. Repositories
// implement the domain interfaces: UserRepository, VariantRepository,
// RelationRepository, EditRepository. Variant and relation mutations bump
// the row version and record an edit in the same transaction.
package database
