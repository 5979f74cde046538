package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/safestreets/safemap/internal/models"
)

// Postgres is the persistent incident store. It keeps the same contract as
// Memory: max+1 id assignment, id-ordered listing and idempotent delete.
type Postgres struct {
	db *pgxpool.Pool
}

// NewPostgres creates a store backed by the given connection pool.
func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db}
}

// Insert writes a new incident, letting the database pick 1 + max existing id.
func (s *Postgres) Insert(ctx context.Context, draft *models.Incident) (*models.Incident, error) {
	query := `
		INSERT INTO incidents (id, type, location, description, postcode, latitude, longitude)
		VALUES ((SELECT COALESCE(MAX(id), 0) + 1 FROM incidents), $1, $2, $3, $4, $5, $6)
		RETURNING id, reported_at;
	`
	inc := *draft
	err := s.db.QueryRow(ctx, query,
		draft.Type,
		draft.Location,
		draft.Description,
		draft.Postcode,
		draft.Coordinates.Latitude,
		draft.Coordinates.Longitude,
	).Scan(&inc.ID, &inc.Date)
	if err != nil {
		return nil, fmt.Errorf("failed to insert incident: %w", err)
	}
	return &inc, nil
}

// Update replaces the mutable fields of the incident with the given id.
func (s *Postgres) Update(ctx context.Context, id int, patch *models.Incident) (*models.Incident, error) {
	query := `
		UPDATE incidents SET
			type = $1,
			location = $2,
			description = $3,
			postcode = $4,
			latitude = $5,
			longitude = $6
		WHERE id = $7
		RETURNING reported_at;
	`
	inc := *patch
	inc.ID = id
	err := s.db.QueryRow(ctx, query,
		patch.Type,
		patch.Location,
		patch.Description,
		patch.Postcode,
		patch.Coordinates.Latitude,
		patch.Coordinates.Longitude,
		id,
	).Scan(&inc.Date)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update incident: %w", err)
	}
	return &inc, nil
}

// Delete removes the incident with the given id. Unknown ids are a no-op.
func (s *Postgres) Delete(ctx context.Context, id int) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM incidents WHERE id = $1;`, id); err != nil {
		return fmt.Errorf("failed to delete incident: %w", err)
	}
	return nil
}

// List returns all incidents ordered by id, which tracks insertion order
// under max+1 assignment.
func (s *Postgres) List(ctx context.Context) ([]*models.Incident, error) {
	query := `
		SELECT id, type, location, description, postcode, latitude, longitude, reported_at
		FROM incidents
		ORDER BY id;
	`
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list incidents: %w", err)
	}
	defer rows.Close()

	incidents := make([]*models.Incident, 0)
	for rows.Next() {
		inc := &models.Incident{}
		err := rows.Scan(
			&inc.ID,
			&inc.Type,
			&inc.Location,
			&inc.Description,
			&inc.Postcode,
			&inc.Coordinates.Latitude,
			&inc.Coordinates.Longitude,
			&inc.Date,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan incident row: %w", err)
		}
		incidents = append(incidents, inc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating incident rows: %w", err)
	}
	return incidents, nil
}
