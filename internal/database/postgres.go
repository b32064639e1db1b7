package database

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

var PostgresDB *sql.DB

// ConnectPostgres connects to PostgreSQL and initializes the schema.
func ConnectPostgres(postgresURI string) error {
	var err error

	PostgresDB, err = sql.Open("postgres", postgresURI)
	if err != nil {
		return err
	}

	// Connection pool settings
	PostgresDB.SetMaxOpenConns(25)
	PostgresDB.SetMaxIdleConns(5)
	PostgresDB.SetConnMaxLifetime(5 * time.Minute)

	if err = PostgresDB.Ping(); err != nil {
		return err
	}

	log.Info().Msg("connected to PostgreSQL")

	if err = InitPostgresTables(); err != nil {
		return err
	}

	return nil
}

// InitPostgresTables creates all necessary tables if they don't exist.
func InitPostgresTables() error {
	queries := []string{
		// Users table (identity, role, ban state, terms acceptance)
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			role VARCHAR(10) NOT NULL DEFAULT 'user',
			banned BOOLEAN NOT NULL DEFAULT FALSE,
			banned_until TIMESTAMP,
			ban_reason TEXT,
			banned_by UUID REFERENCES users(id) ON DELETE SET NULL,
			banned_at TIMESTAMP,
			theme VARCHAR(20) NOT NULL DEFAULT 'light',
			terms_version VARCHAR(20),
			terms_accepted_at TIMESTAMP
		)`,

		// User profiles (1:1 with users, created lazily on first write)
		`CREATE TABLE IF NOT EXISTS user_profiles (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
			full_name VARCHAR(255),
			date_of_birth DATE,
			address TEXT,
			pps_number VARCHAR(20),
			interests TEXT[],
			county VARCHAR(50),
			UNIQUE(user_id)
		)`,

		// Admin locations: the counties an admin manages.
		// UNIQUE(county) is the store-level source of truth for the
		// one-admin-per-county invariant; the service pre-check is the
		// fast path that produces a readable conflict error.
		`CREATE TABLE IF NOT EXISTS admin_locations (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			admin_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			county VARCHAR(50) NOT NULL UNIQUE,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,

		// Issues
		`CREATE TABLE IF NOT EXISTS issues (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			title VARCHAR(255) NOT NULL,
			description TEXT NOT NULL,
			category VARCHAR(50) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'under_review',
			county VARCHAR(50) NOT NULL,
			case_id VARCHAR(30) NOT NULL UNIQUE,
			is_public BOOLEAN NOT NULL DEFAULT TRUE,
			latitude DOUBLE PRECISION,
			longitude DOUBLE PRECISION,
			view_count INTEGER NOT NULL DEFAULT 0,
			admin_note TEXT,
			admin_action_by UUID REFERENCES users(id) ON DELETE SET NULL,
			admin_action_at TIMESTAMP
		)`,

		// Suggestions (no geolocation, own status vocabulary)
		`CREATE TABLE IF NOT EXISTS suggestions (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			title VARCHAR(255) NOT NULL,
			description TEXT NOT NULL,
			category VARCHAR(50) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'submitted',
			county VARCHAR(50) NOT NULL,
			case_id VARCHAR(30) NOT NULL UNIQUE,
			is_public BOOLEAN NOT NULL DEFAULT TRUE,
			view_count INTEGER NOT NULL DEFAULT 0,
			admin_note TEXT,
			admin_action_by UUID REFERENCES users(id) ON DELETE SET NULL,
			admin_action_at TIMESTAMP
		)`,

		// Attached images (ordered by created_at)
		`CREATE TABLE IF NOT EXISTS issue_images (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			issue_id UUID NOT NULL REFERENCES issues(id) ON DELETE CASCADE,
			url TEXT NOT NULL,
			public_id VARCHAR(255),
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS suggestion_images (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			suggestion_id UUID NOT NULL REFERENCES suggestions(id) ON DELETE CASCADE,
			url TEXT NOT NULL,
			public_id VARCHAR(255),
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,

		// Appraisals: one like per user per target, exactly one target set.
		// Partial unique indexes below back the existence-check-then-mutate
		// toggle against concurrent double likes.
		`CREATE TABLE IF NOT EXISTS appraisals (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			issue_id UUID REFERENCES issues(id) ON DELETE CASCADE,
			suggestion_id UUID REFERENCES suggestions(id) ON DELETE CASCADE,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			CHECK ((issue_id IS NULL) <> (suggestion_id IS NULL))
		)`,

		// Admin support messages, routed to the sender's county admin
		`CREATE TABLE IF NOT EXISTS admin_messages (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			admin_id UUID REFERENCES users(id) ON DELETE SET NULL,
			county VARCHAR(50),
			issue_type VARCHAR(30) NOT NULL,
			description TEXT NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			admin_response TEXT,
			viewed_at TIMESTAMP,
			resolved_at TIMESTAMP
		)`,

		// Indexes
		`CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)`,
		`CREATE INDEX IF NOT EXISTS idx_users_role ON users(role)`,
		`CREATE INDEX IF NOT EXISTS idx_user_profiles_user_id ON user_profiles(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_admin_locations_admin_id ON admin_locations(admin_id)`,
		`CREATE INDEX IF NOT EXISTS idx_issues_user_id ON issues(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_issues_county ON issues(county)`,
		`CREATE INDEX IF NOT EXISTS idx_issues_is_public ON issues(is_public)`,
		`CREATE INDEX IF NOT EXISTS idx_issues_created_at ON issues(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_suggestions_user_id ON suggestions(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_suggestions_county ON suggestions(county)`,
		`CREATE INDEX IF NOT EXISTS idx_suggestions_is_public ON suggestions(is_public)`,
		`CREATE INDEX IF NOT EXISTS idx_suggestions_created_at ON suggestions(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_issue_images_issue_id ON issue_images(issue_id)`,
		`CREATE INDEX IF NOT EXISTS idx_suggestion_images_suggestion_id ON suggestion_images(suggestion_id)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_appraisals_user_issue ON appraisals(user_id, issue_id) WHERE issue_id IS NOT NULL`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_appraisals_user_suggestion ON appraisals(user_id, suggestion_id) WHERE suggestion_id IS NOT NULL`,
		`CREATE INDEX IF NOT EXISTS idx_appraisals_issue_id ON appraisals(issue_id)`,
		`CREATE INDEX IF NOT EXISTS idx_appraisals_suggestion_id ON appraisals(suggestion_id)`,
		`CREATE INDEX IF NOT EXISTS idx_admin_messages_admin_id ON admin_messages(admin_id)`,
		`CREATE INDEX IF NOT EXISTS idx_admin_messages_status ON admin_messages(status)`,
		`CREATE INDEX IF NOT EXISTS idx_admin_messages_created_at ON admin_messages(created_at)`,
	}

	for _, query := range queries {
		if _, err := PostgresDB.Exec(query); err != nil {
			return err
		}
	}

	log.Info().Msg("PostgreSQL tables initialized")
	return nil
}

// DisconnectPostgres closes the PostgreSQL connection.
func DisconnectPostgres() error {
	if PostgresDB != nil {
		return PostgresDB.Close()
	}
	return nil
}
