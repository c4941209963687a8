package supplement

import (
	"context"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"github.com/dsfhealth/sahaya/internal/database"
)

// Repository defines the database operations for the supplement module.
type Repository interface {
	ListByUser(ctx context.Context, userID string) ([]Supplement, error)
	FindByID(ctx context.Context, id string) (*Supplement, error)
	InsertMany(ctx context.Context, supplements []Supplement) error

	// LogTaken marks a supplement taken on a date. A second call for the
	// same (supplement, date) succeeds without inserting another row.
	LogTaken(ctx context.Context, log *Log) error
	LoggedSupplementIDs(ctx context.Context, userID string, date time.Time) ([]string, error)
	LoggedDates(ctx context.Context, userID string) ([]time.Time, error)
}

// repository implements the Repository interface using pgx and squirrel.
type repository struct {
	db   database.DBTX
	psql squirrel.StatementBuilderType
}

// NewRepository creates a new supplement repository with the given database connection.
func NewRepository(db database.DBTX) Repository {
	return &repository{
		db:   db,
		psql: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// ListByUser retrieves all of a user's supplements, oldest first.
func (r *repository) ListByUser(ctx context.Context, userID string) ([]Supplement, error) {
	query, args, err := r.psql.Select("*").
		From("supplements").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	var supplements []Supplement
	if err := pgxscan.Select(ctx, r.db, &supplements, query, args...); err != nil {
		return nil, err
	}
	return supplements, nil
}

// FindByID retrieves a single supplement by ID.
// It returns ErrNotFound if no row exists.
func (r *repository) FindByID(ctx context.Context, id string) (*Supplement, error) {
	query, args, err := r.psql.Select("*").
		From("supplements").
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, err
	}

	var supplement Supplement
	err = pgxscan.Get(ctx, r.db, &supplement, query, args...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound.WithCause(err)
		}
		return nil, err
	}

	return &supplement, nil
}

// InsertMany creates supplement rows in one statement.
func (r *repository) InsertMany(ctx context.Context, supplements []Supplement) error {
	if len(supplements) == 0 {
		return nil
	}

	builder := r.psql.Insert("supplements").
		Columns("id", "user_id", "name", "created_at")
	for i := range supplements {
		supplements[i].CreatedAt = time.Now()
		builder = builder.Values(supplements[i].ID, supplements[i].UserID, supplements[i].Name, supplements[i].CreatedAt)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, query, args...)
	return err
}

// LogTaken inserts an intake log. The UNIQUE (supplement_id, taken_date)
// index plus ON CONFLICT DO NOTHING makes duplicate same-day marks a no-op.
func (r *repository) LogTaken(ctx context.Context, log *Log) error {
	log.CreatedAt = time.Now()

	query, args, err := r.psql.Insert("supplement_logs").
		Columns("id", "supplement_id", "taken_date", "created_at").
		Values(log.ID, log.SupplementID, log.TakenDate, log.CreatedAt).
		Suffix("ON CONFLICT (supplement_id, taken_date) DO NOTHING").
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, query, args...)
	return err
}

// LoggedSupplementIDs returns the IDs of the user's supplements logged as
// taken on the given date.
func (r *repository) LoggedSupplementIDs(ctx context.Context, userID string, date time.Time) ([]string, error) {
	query, args, err := r.psql.Select("l.supplement_id").
		From("supplement_logs l").
		Join("supplements s ON s.id = l.supplement_id").
		Where(squirrel.Eq{"s.user_id": userID, "l.taken_date": date}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var ids []string
	if err := pgxscan.Select(ctx, r.db, &ids, query, args...); err != nil {
		return nil, err
	}
	return ids, nil
}

// LoggedDates returns every distinct date the user logged any supplement,
// newest first. Feeds the intake calendar.
func (r *repository) LoggedDates(ctx context.Context, userID string) ([]time.Time, error) {
	query, args, err := r.psql.Select("DISTINCT l.taken_date").
		From("supplement_logs l").
		Join("supplements s ON s.id = l.supplement_id").
		Where(squirrel.Eq{"s.user_id": userID}).
		OrderBy("l.taken_date DESC").
		ToSql()
	if err != nil {
		return nil, err
	}

	var dates []time.Time
	if err := pgxscan.Select(ctx, r.db, &dates, query, args...); err != nil {
		return nil, err
	}
	return dates, nil
}
