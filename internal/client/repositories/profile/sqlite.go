package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/mazgpt/mazgpt-go/internal/client/models"
	"github.com/mazgpt/mazgpt-go/internal/dbx"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Save replaces the stored blob for email. The delete and insert run in one
// transaction so a concurrent Load never observes a missing row.
func (r *SQLiteRepository) Save(ctx context.Context, email string, p *models.Profile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode profile[%s]: %w", email, err)
	}

	err = dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM profiles WHERE email = ?`, email); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO profiles (email, data) VALUES (?, ?)`, email, data)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to save profile[%s]: %w", email, err)
	}
	return nil
}

func (r *SQLiteRepository) Load(ctx context.Context, email string) (*models.Profile, error) {
	var data []byte
	err := r.db.QueryRowContext(ctx, `SELECT data FROM profiles WHERE email = ?`, email).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile[%s]: %w", email, err)
	}

	var p models.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		// A corrupt blob reads as "no data".
		return nil, nil
	}
	return &p, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context, email string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM profiles WHERE email = ?`, email)
	if err != nil {
		return fmt.Errorf("failed to clear profile[%s]: %w", email, err)
	}
	return nil
}
