package profile

import (
	"context"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"github.com/dsfhealth/sahaya/internal/database"
)

// Repository defines the database operations for the profile module.
type Repository interface {
	FindByID(ctx context.Context, id string) (*Profile, error)
	Insert(ctx context.Context, profile *Profile) error
	Update(ctx context.Context, profile *Profile) error
}

// repository implements the Repository interface using pgx and squirrel.
type repository struct {
	db   database.DBTX
	psql squirrel.StatementBuilderType
}

// NewRepository creates a new profile repository with the given database connection.
func NewRepository(db database.DBTX) Repository {
	return &repository{
		db:   db,
		psql: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// FindByID retrieves a profile by the owning user's ID.
// It returns ErrNotFound if no profile row exists yet.
func (r *repository) FindByID(ctx context.Context, id string) (*Profile, error) {
	query, args, err := r.psql.Select("*").
		From("profiles").
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, err
	}

	var profile Profile
	err = pgxscan.Get(ctx, r.db, &profile, query, args...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound.WithCause(err)
		}
		return nil, err
	}

	return &profile, nil
}

// Insert creates a new profile row for a user.
func (r *repository) Insert(ctx context.Context, profile *Profile) error {
	profile.CreatedAt = time.Now()
	profile.UpdatedAt = time.Now()

	query, args, err := r.psql.Insert("profiles").
		Columns("id", "name", "age", "phone_number", "address", "country", "state", "city", "created_at", "updated_at").
		Values(profile.ID, profile.Name, profile.Age, profile.PhoneNumber, profile.Address, profile.Country, profile.State, profile.City, profile.CreatedAt, profile.UpdatedAt).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, query, args...)
	return err
}

// Update modifies an existing profile row.
func (r *repository) Update(ctx context.Context, profile *Profile) error {
	profile.UpdatedAt = time.Now()

	query, args, err := r.psql.Update("profiles").
		Set("name", profile.Name).
		Set("age", profile.Age).
		Set("phone_number", profile.PhoneNumber).
		Set("address", profile.Address).
		Set("country", profile.Country).
		Set("state", profile.State).
		Set("city", profile.City).
		Set("updated_at", profile.UpdatedAt).
		Where(squirrel.Eq{"id": profile.ID}).
		ToSql()
	if err != nil {
		return err
	}

	ct, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
