package documents

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tamweel-auto/waitlist/internal/analysis"
)

// Repository persists document_uploads rows.
type Repository interface {
	Create(ctx context.Context, rec Record) error
	Update(ctx context.Context, rec Record) error
	FindByID(ctx context.Context, id string) (Record, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed document repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a tracking row.
func (r *PostgresRepository) Create(ctx context.Context, rec Record) error {
	id, err := uuid.Parse(rec.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO document_uploads
        (id, file_path, file_name, document_type, processing_status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $6)`,
		id, rec.FilePath, rec.FileName, string(rec.DocumentType), string(rec.ProcessingStatus), rec.CreatedAt.UTC())
	return err
}

// Update writes the mutable analysis columns.
func (r *PostgresRepository) Update(ctx context.Context, rec Record) error {
	id, err := uuid.Parse(rec.ID)
	if err != nil {
		return err
	}
	cmd, err := r.db.Exec(ctx, `UPDATE document_uploads
        SET processing_status = $2,
            processing_method = NULLIF($3, ''),
            confidence_score = $4,
            extracted_data = $5,
            error_message = NULLIF($6, ''),
            updated_at = $7
        WHERE id = $1`,
		id, string(rec.ProcessingStatus), string(rec.ProcessingMethod), rec.ConfidenceScore,
		rec.ExtractedData, rec.ErrorMessage, rec.UpdatedAt.UTC())
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// FindByID loads one row.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (Record, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return Record{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT id, file_path, file_name, document_type, processing_status,
            COALESCE(processing_method, ''), confidence_score, extracted_data, COALESCE(error_message, ''),
            created_at, updated_at
        FROM document_uploads WHERE id = $1`, uid)

	var (
		rowID                 uuid.UUID
		docType, status, meth string
		rec                   Record
		createdAt, updatedAt  time.Time
	)
	if err := row.Scan(&rowID, &rec.FilePath, &rec.FileName, &docType, &status, &meth,
		&rec.ConfidenceScore, &rec.ExtractedData, &rec.ErrorMessage, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	rec.ID = rowID.String()
	rec.DocumentType = analysis.DocumentType(docType)
	rec.ProcessingStatus = Status(status)
	rec.ProcessingMethod = analysis.ProcessingMethod(meth)
	rec.CreatedAt, rec.UpdatedAt = createdAt.UTC(), updatedAt.UTC()
	return rec, nil
}
