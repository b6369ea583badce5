package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mbolis/quest-editor/model"
)

// SaveSubmission stores a completed session and bumps the survey's
// response count.
func (db *DB) SaveSubmission(ctx context.Context, sub *model.Submission) error {
	answers, err := json.Marshal(sub.Answers)
	if err != nil {
		return fmt.Errorf("answers: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, db.Rebind(`
		UPDATE survey
		SET response_count = response_count + 1
		WHERE id = ?`),
		sub.SurveyID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n < 1 {
		return ErrSurveyNotFound
	}

	_, err = tx.ExecContext(ctx, db.Rebind(`
		INSERT INTO submission (id, survey_id, time, ip, answers)
		VALUES (?, ?, ?, ?, ?)`),
		sub.ID,
		sub.SurveyID,
		sub.Time,
		sub.IP,
		string(answers),
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// ListSubmissions returns the submissions of a survey, oldest first.
func (db *DB) ListSubmissions(ctx context.Context, surveyID string) ([]model.Submission, error) {
	var exists int
	err := db.QueryRowContext(ctx, db.Rebind(`SELECT 1 FROM survey WHERE id = ?`), surveyID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSurveyNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, db.Rebind(`
		SELECT id, survey_id, time, ip, answers
		FROM submission
		WHERE survey_id = ?
		ORDER BY time`),
		surveyID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	submissions := []model.Submission{}
	for rows.Next() {
		s := model.Submission{}
		var answers string
		if err := rows.Scan(&s.ID, &s.SurveyID, &s.Time, &s.IP, &answers); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(answers), &s.Answers); err != nil {
			return nil, fmt.Errorf("submission %s: %w", s.ID, err)
		}
		submissions = append(submissions, s)
	}
	return submissions, rows.Err()
}
