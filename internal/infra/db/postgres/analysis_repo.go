package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	domain "github.com/inancsarica/boom-guru/internal/domain/analysis"
)

type AnalysisRepository struct{ db *sql.DB }

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// Save inserts the audit row for a finished session.
func (r *AnalysisRepository) Save(ctx context.Context, a *domain.Record) error {
	const q = `
INSERT INTO machine_analysis
  (session_id, serial_number, image_id, form_id, question_id, category, part_category, final_answer, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9);
`
	_, err := r.db.ExecContext(ctx, q,
		a.SessionID,
		a.SerialNumber,
		a.ImageID,
		stringOrDash(a.FormID),
		stringOrDash(a.QuestionID),
		a.Category,
		a.PartCategory,
		a.FinalAnswer,
		time.Now().UTC(),
	)
	return err
}

// Latest returns the most recent analysis rows, newest first.
func (r *AnalysisRepository) Latest(ctx context.Context, limit int) ([]*domain.Record, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT session_id, serial_number, image_id, form_id, question_id, category, part_category, final_answer
FROM machine_analysis
ORDER BY created_at DESC
LIMIT $1;
`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Record
	for rows.Next() {
		var a domain.Record
		if err := rows.Scan(&a.SessionID, &a.SerialNumber, &a.ImageID, &a.FormID,
			&a.QuestionID, &a.Category, &a.PartCategory, &a.FinalAnswer); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

func stringOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
