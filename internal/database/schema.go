package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// EnsureSchema creates the tables and indexes the service needs. The two
// partial unique indexes on bookings are the storage-level backstop for the
// one-active-booking-per-user and one-occupant-per-bed invariants.
func EnsureSchema(db *sqlx.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		role VARCHAR(50) NOT NULL DEFAULT 'student',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS buildings (
		id VARCHAR(255) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		total_rooms INT NOT NULL DEFAULT 0,
		total_beds INT NOT NULL DEFAULT 0,
		available_beds INT NOT NULL DEFAULT 0,
		amenities JSONB NOT NULL DEFAULT '[]'::jsonb,
		image TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT buildings_available_within_total
			CHECK (available_beds >= 0 AND available_beds <= total_beds)
	);

	CREATE TABLE IF NOT EXISTS rooms (
		id VARCHAR(255) PRIMARY KEY,
		building_id VARCHAR(255) NOT NULL REFERENCES buildings(id) ON DELETE CASCADE,
		number VARCHAR(50) NOT NULL,
		type VARCHAR(50) NOT NULL,
		total_beds INT NOT NULL,
		available_beds INT NOT NULL,
		amenities JSONB NOT NULL DEFAULT '[]'::jsonb,
		price DECIMAL(10,2) NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE(building_id, number),
		CONSTRAINT rooms_available_within_total
			CHECK (available_beds >= 0 AND available_beds <= total_beds)
	);

	CREATE TABLE IF NOT EXISTS beds (
		id VARCHAR(255) PRIMARY KEY,
		room_id VARCHAR(255) NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
		number INT NOT NULL,
		is_occupied BOOLEAN NOT NULL DEFAULT FALSE,
		occupied_by VARCHAR(255),
		occupied_by_name VARCHAR(255),
		UNIQUE(room_id, number)
	);

	CREATE TABLE IF NOT EXISTS bookings (
		id VARCHAR(255) PRIMARY KEY,
		user_id VARCHAR(255) NOT NULL,
		user_name VARCHAR(255) NOT NULL,
		building_id VARCHAR(255) NOT NULL,
		building_name VARCHAR(255) NOT NULL,
		room_id VARCHAR(255) NOT NULL,
		room_number VARCHAR(50) NOT NULL,
		bed_id VARCHAR(255) NOT NULL,
		bed_number INT NOT NULL,
		booking_date TIMESTAMPTZ NOT NULL,
		status VARCHAR(50) NOT NULL DEFAULT 'active',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_rooms_building ON rooms(building_id);
	CREATE INDEX IF NOT EXISTS idx_beds_room ON beds(room_id);
	CREATE INDEX IF NOT EXISTS idx_beds_occupied ON beds(is_occupied);
	CREATE INDEX IF NOT EXISTS idx_bookings_user ON bookings(user_id);
	CREATE INDEX IF NOT EXISTS idx_bookings_building ON bookings(building_id);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_one_active_per_user
		ON bookings(user_id) WHERE status = 'active';
	CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_one_active_per_bed
		ON bookings(bed_id) WHERE status = 'active';
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}
