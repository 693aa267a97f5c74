package database

import (
	"context"
	"fmt"
)

var migrations = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,

	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		email VARCHAR(255) UNIQUE NOT NULL,
		name VARCHAR(255) NOT NULL,
		role VARCHAR(50) NOT NULL DEFAULT 'member',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS invitations (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		inviter_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		kind VARCHAR(20) NOT NULL,
		code VARCHAR(6) NOT NULL,
		restricted_email VARCHAR(255),
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
		accepted_at TIMESTAMP WITH TIME ZONE,
		accepted_by_user_id UUID REFERENCES users(id) ON DELETE SET NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	// Terminal invitations keep their code, so uniqueness only covers pending rows.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_invitations_pending_code ON invitations (upper(code)) WHERE status = 'pending'`,
	`DROP INDEX IF EXISTS idx_invitations_code`,
	`CREATE INDEX IF NOT EXISTS idx_invitations_code_upper ON invitations (upper(code))`,
	`CREATE INDEX IF NOT EXISTS idx_invitations_inviter_status ON invitations (inviter_id, status)`,
	`CREATE INDEX IF NOT EXISTS idx_invitations_pending_expiry ON invitations (expires_at) WHERE status = 'pending'`,

	`CREATE TABLE IF NOT EXISTS relationships (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		party_a_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		party_b_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		kind VARCHAR(20) NOT NULL,
		invitation_id UUID REFERENCES invitations(id) ON DELETE SET NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'active',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		CHECK (party_a_id <> party_b_id)
	)`,

	`CREATE UNIQUE INDEX IF NOT EXISTS idx_relationships_active_pair ON relationships (party_a_id, party_b_id, kind) WHERE status = 'active'`,
	`CREATE INDEX IF NOT EXISTS idx_relationships_party_a_status ON relationships (party_a_id, status)`,
	`CREATE INDEX IF NOT EXISTS idx_relationships_party_b_status ON relationships (party_b_id, status)`,
	`CREATE INDEX IF NOT EXISTS idx_relationships_invitation ON relationships (invitation_id) WHERE invitation_id IS NOT NULL`,
}

func (db *DB) Migrate(ctx context.Context) error {
	for i, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
