package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/zombar/slopscore/internal/models"
)

const analysisColumns = `id, file, text, status, last_error, result, created_at, updated_at`

// SaveAnalysis inserts an analysis. A nil Result stores a pending row.
func (db *DB) SaveAnalysis(ctx context.Context, analysis *models.Analysis) error {
	resultJSON, score, err := encodeResult(analysis.Result)
	if err != nil {
		return err
	}

	status := analysis.Status
	if status == "" {
		status = models.StatusCompleted
	}

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO analyses (id, file, text, status, last_error, result, slop_score, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, analysis.ID, analysis.File, analysis.Text, status, analysis.Error, resultJSON, score,
		analysis.CreatedAt.UnixNano(), analysis.UpdatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to insert analysis: %w", err)
	}
	return nil
}

// CompleteAnalysis stores the result of a queued analysis
func (db *DB) CompleteAnalysis(ctx context.Context, id string, result *models.AnalysisResult) error {
	resultJSON, score, err := encodeResult(result)
	if err != nil {
		return err
	}

	res, err := db.conn.ExecContext(ctx, `
		UPDATE analyses
		SET status = ?, last_error = '', result = ?, slop_score = ?, updated_at = ?
		WHERE id = ?
	`, models.StatusCompleted, resultJSON, score, time.Now().UnixNano(), id)
	if err != nil {
		return fmt.Errorf("failed to complete analysis: %w", err)
	}
	return checkAffected(res)
}

// FailAnalysis records a processing error for a queued analysis
func (db *DB) FailAnalysis(ctx context.Context, id string, reason string) error {
	res, err := db.conn.ExecContext(ctx, `
		UPDATE analyses
		SET status = ?, last_error = ?, updated_at = ?
		WHERE id = ?
	`, models.StatusFailed, reason, time.Now().UnixNano(), id)
	if err != nil {
		return fmt.Errorf("failed to mark analysis failed: %w", err)
	}
	return checkAffected(res)
}

// GetAnalysis retrieves an analysis by ID
func (db *DB) GetAnalysis(ctx context.Context, id string) (*models.Analysis, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+analysisColumns+` FROM analyses WHERE id = ?`, id)

	analysis, err := scanAnalysis(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	return analysis, nil
}

// ListAnalyses retrieves analyses newest first with pagination. Texts are
// omitted from the listing.
func (db *DB) ListAnalyses(ctx context.Context, limit, offset int) ([]*models.Analysis, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+analysisColumns+`
		FROM analyses
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer rows.Close()

	analyses := []*models.Analysis{}
	for rows.Next() {
		analysis, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		analysis.Text = ""
		analyses = append(analyses, analysis)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return analyses, nil
}

// CountAnalyses returns the number of stored analyses
func (db *DB) CountAnalyses(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM analyses`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count analyses: %w", err)
	}
	return n, nil
}

// DeleteAnalysis deletes an analysis by ID
func (db *DB) DeleteAnalysis(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, "DELETE FROM analyses WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete analysis: %w", err)
	}
	return checkAffected(result)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(s scanner) (*models.Analysis, error) {
	var (
		a          models.Analysis
		resultJSON sql.NullString
		createdAt  int64
		updatedAt  int64
	)

	if err := s.Scan(&a.ID, &a.File, &a.Text, &a.Status, &a.Error, &resultJSON, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	if resultJSON.Valid && resultJSON.String != "" {
		var result models.AnalysisResult
		if err := json.Unmarshal([]byte(resultJSON.String), &result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal result: %w", err)
		}
		result.ID = a.ID
		a.Result = &result
	}

	a.CreatedAt = time.Unix(0, createdAt).UTC()
	a.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return &a, nil
}

func encodeResult(result *models.AnalysisResult) (sql.NullString, sql.NullFloat64, error) {
	if result == nil {
		return sql.NullString{}, sql.NullFloat64{}, nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return sql.NullString{}, sql.NullFloat64{}, fmt.Errorf("failed to marshal result: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true},
		sql.NullFloat64{Float64: result.SlopScore, Valid: true}, nil
}

func checkAffected(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
