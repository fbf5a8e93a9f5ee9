package migrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

func init() {
	up := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec(`
			CREATE TABLE users (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				profile_picture TEXT,
				firstname TEXT NOT NULL,
				lastname TEXT NOT NULL,
				email TEXT NOT NULL,
				mobile TEXT,
				location TEXT,
				gender TEXT,
				date_of_birth TIMESTAMPTZ,
				password_hash TEXT NOT NULL,
				role TEXT NOT NULL DEFAULT 'user',
				is_blocked BOOLEAN NOT NULL DEFAULT FALSE,
				refresh_token TEXT,
				password_reset_token TEXT,
				password_reset_expires TIMESTAMPTZ,
				preferred_language TEXT NOT NULL DEFAULT 'en',
				subscription_type TEXT NOT NULL DEFAULT 'Free',
				income REAL NOT NULL DEFAULT 0
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE UNIQUE INDEX ux_users_email ON users (email COLLATE NOCASE)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE sections (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				name_en TEXT NOT NULL,
				name_es TEXT,
				number_of_questions INTEGER NOT NULL DEFAULT 0,
				published BOOLEAN NOT NULL DEFAULT FALSE,
				episode_index INTEGER
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE questions (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				section_id INTEGER REFERENCES sections (id) NOT NULL,
				text_en TEXT NOT NULL,
				text_es TEXT
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_questions_section_id ON questions (section_id)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE books (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				user_id INTEGER REFERENCES users (id) NOT NULL,
				title TEXT NOT NULL,
				cover_image TEXT,
				status TEXT NOT NULL DEFAULT 'draft',
				percentage INTEGER NOT NULL DEFAULT 0,
				finalized_at TIMESTAMPTZ,
				episodes TEXT NOT NULL DEFAULT '[]'
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_books_user_id ON books (user_id)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE orders (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				user_id INTEGER REFERENCES users (id) NOT NULL,
				book_title TEXT NOT NULL,
				quantity INTEGER NOT NULL,
				price REAL NOT NULL,
				total REAL NOT NULL,
				status TEXT NOT NULL DEFAULT 'pending',
				payment_id TEXT,
				shipping_address TEXT,
				shipping_method TEXT,
				pdf_link TEXT,
				customer_email TEXT,
				customer_phone TEXT,
				customer_name TEXT
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_orders_user_id ON orders (user_id)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE subscription_plans (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				title TEXT NOT NULL,
				description TEXT,
				price REAL NOT NULL,
				discount REAL NOT NULL DEFAULT 0,
				discounted_price REAL NOT NULL DEFAULT 0,
				benefits TEXT NOT NULL DEFAULT '[]',
				start_date TIMESTAMPTZ,
				end_date TIMESTAMPTZ,
				status TEXT NOT NULL DEFAULT 'active'
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE coupons (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				name TEXT NOT NULL,
				code TEXT NOT NULL,
				discount REAL NOT NULL,
				start_date TIMESTAMPTZ,
				end_date TIMESTAMPTZ,
				status TEXT NOT NULL DEFAULT 'active'
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE UNIQUE INDEX ux_coupons_code ON coupons (code COLLATE NOCASE)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE notifications (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				user_id INTEGER REFERENCES users (id) NOT NULL,
				order_id INTEGER REFERENCES orders (id),
				message TEXT NOT NULL,
				status TEXT NOT NULL DEFAULT 'unread'
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_notifications_user_id ON notifications (user_id)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE policies (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				terms_and_conditions TEXT,
				privacy_policy TEXT
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE stations (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				name TEXT NOT NULL,
				code TEXT NOT NULL,
				city TEXT
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE UNIQUE INDEX ux_stations_code ON stations (code COLLATE NOCASE)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE trains (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				name TEXT NOT NULL,
				stops TEXT NOT NULL DEFAULT '[]'
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE tickets (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				user_id INTEGER REFERENCES users (id) NOT NULL,
				train_id INTEGER REFERENCES trains (id) NOT NULL,
				from_station_id INTEGER REFERENCES stations (id) NOT NULL,
				to_station_id INTEGER REFERENCES stations (id) NOT NULL,
				fare REAL NOT NULL,
				issued_at TIMESTAMPTZ NOT NULL
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_tickets_user_id ON tickets (user_id)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE wallets (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				user_id INTEGER REFERENCES users (id) NOT NULL,
				balance REAL NOT NULL DEFAULT 0,
				transactions TEXT NOT NULL DEFAULT '[]'
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE UNIQUE INDEX ux_wallets_user_id ON wallets (user_id)`)
		return errors.WithStack(err)
	}

	down := func(_ context.Context, db *bun.DB) error {
		tables := []string{
			"wallets",
			"tickets",
			"trains",
			"stations",
			"policies",
			"notifications",
			"coupons",
			"subscription_plans",
			"orders",
			"books",
			"questions",
			"sections",
			"users",
		}
		for _, table := range tables {
			_, err := db.Exec("DROP TABLE IF EXISTS " + table)
			if err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	}

	Migrations.MustRegister(up, down)
}
