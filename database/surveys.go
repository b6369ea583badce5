package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mbolis/quest-editor/model"
	"github.com/mbolis/quest-editor/wire"
)

// ListSurveys returns the survey headers, most recently updated first.
func (db *DB) ListSurveys(ctx context.Context) ([]wire.SurveyRow, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, title, description, status, theme, created_at, updated_at, response_count
		FROM survey
		ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	surveys := []wire.SurveyRow{}
	for rows.Next() {
		s, err := scanSurvey(rows)
		if err != nil {
			return nil, err
		}
		surveys = append(surveys, s)
	}
	return surveys, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSurvey(row scanner) (s wire.SurveyRow, err error) {
	var theme string
	err = row.Scan(&s.ID, &s.Title, &s.Description, &s.Status, &theme, &s.CreatedAt, &s.UpdatedAt, &s.ResponseCount)
	if err != nil {
		return
	}
	s.Theme = model.DefaultTheme()
	if theme != "" {
		err = json.Unmarshal([]byte(theme), &s.Theme)
	}
	return
}

// LoadSurvey reads the relational rows of a survey and reassembles the
// document.
func (db *DB) LoadSurvey(ctx context.Context, id string) (*model.Survey, error) {
	p := &wire.Payload{}

	row := db.QueryRowContext(ctx, db.Rebind(`
		SELECT id, title, description, status, theme, created_at, updated_at, response_count
		FROM survey
		WHERE id = ?`),
		id,
	)
	var err error
	p.Survey, err = scanSurvey(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSurveyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("survey: %w", err)
	}

	sections, err := db.QueryContext(ctx, db.Rebind(`
		SELECT id, survey_id, name, position
		FROM survey_section
		WHERE survey_id = ?
		ORDER BY position`),
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("sections: %w", err)
	}
	defer sections.Close()
	for sections.Next() {
		sec := wire.SectionRow{}
		if err := sections.Scan(&sec.ID, &sec.SurveyID, &sec.Name, &sec.Position); err != nil {
			return nil, fmt.Errorf("sections.scan: %w", err)
		}
		p.Sections = append(p.Sections, sec)
	}
	if err := sections.Err(); err != nil {
		return nil, fmt.Errorf("sections: %w", err)
	}

	questions, err := db.QueryContext(ctx, db.Rebind(`
		SELECT id, survey_id, section_id, type, title, description, required, position, ord, settings
		FROM survey_question
		WHERE survey_id = ?
		ORDER BY ord`),
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("questions: %w", err)
	}
	defer questions.Close()
	for questions.Next() {
		q := wire.QuestionRow{}
		var settings string
		err := questions.Scan(&q.ID, &q.SurveyID, &q.SectionID, &q.Type, &q.Title, &q.Description,
			&q.Required, &q.Position, &q.Order, &settings)
		if err != nil {
			return nil, fmt.Errorf("questions.scan: %w", err)
		}
		q.Settings = json.RawMessage(settings)
		p.Questions = append(p.Questions, q)
	}
	if err := questions.Err(); err != nil {
		return nil, fmt.Errorf("questions: %w", err)
	}

	return wire.Assemble(p)
}

// SaveSurvey writes the whole document, replacing every section and
// question previously stored for it. The stored response count is kept.
func (db *DB) SaveSurvey(ctx context.Context, s *model.Survey) error {
	p, err := wire.Flatten(s)
	if err != nil {
		return err
	}
	theme, err := json.Marshal(p.Survey.Theme)
	if err != nil {
		return fmt.Errorf("theme: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, db.Rebind(`
		INSERT INTO survey (id, title, description, status, theme, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			status = excluded.status,
			theme = excluded.theme,
			updated_at = excluded.updated_at`),
		p.Survey.ID,
		p.Survey.Title,
		p.Survey.Description,
		p.Survey.Status,
		string(theme),
		p.Survey.CreatedAt,
		p.Survey.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("survey: %w", err)
	}

	// delete all sections and questions
	_, err = tx.ExecContext(ctx, db.Rebind(`DELETE FROM survey_question WHERE survey_id = ?`), s.ID)
	if err != nil {
		return fmt.Errorf("delete_questions: %w", err)
	}
	_, err = tx.ExecContext(ctx, db.Rebind(`DELETE FROM survey_section WHERE survey_id = ?`), s.ID)
	if err != nil {
		return fmt.Errorf("delete_sections: %w", err)
	}

	// recreate them
	secStmt, err := tx.PrepareContext(ctx, db.Rebind(`
		INSERT INTO survey_section (id, survey_id, name, position)
		VALUES (?, ?, ?, ?)`))
	if err != nil {
		return fmt.Errorf("sections.prepare: %w", err)
	}
	defer secStmt.Close()
	for _, sec := range p.Sections {
		if _, err := secStmt.ExecContext(ctx, sec.ID, sec.SurveyID, sec.Name, sec.Position); err != nil {
			return fmt.Errorf("sections.insert: %w", err)
		}
	}

	qStmt, err := tx.PrepareContext(ctx, db.Rebind(`
		INSERT INTO survey_question (id, survey_id, section_id, type, title, description, required, position, ord, settings)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return fmt.Errorf("questions.prepare: %w", err)
	}
	defer qStmt.Close()
	for _, q := range p.Questions {
		_, err := qStmt.ExecContext(ctx, q.ID, q.SurveyID, q.SectionID, q.Type, q.Title, q.Description,
			q.Required, q.Position, q.Order, string(q.Settings))
		if err != nil {
			return fmt.Errorf("questions.insert: %w", err)
		}
	}

	return tx.Commit()
}

func (db *DB) DeleteSurvey(ctx context.Context, id string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"submission", "survey_question", "survey_section"} {
		_, err = tx.ExecContext(ctx, db.Rebind(`DELETE FROM `+table+` WHERE survey_id = ?`), id)
		if err != nil {
			return fmt.Errorf("%s: %w", table, err)
		}
	}

	res, err := tx.ExecContext(ctx, db.Rebind(`DELETE FROM survey WHERE id = ?`), id)
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

	return tx.Commit()
}
