package export

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// SQLSource reads templates and answers from a relational database opened
// by the database package (sqlite or postgres).
type SQLSource struct {
	db *sql.DB
}

// NewSQLSource wraps an open database handle.
func NewSQLSource(db *sql.DB) *SQLSource {
	return &SQLSource{db: db}
}

// Templates implements Source. Rows without a question id are skipped.
func (s *SQLSource) Templates(ctx context.Context) (map[string]Template, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT question_id, attribute, question_text FROM question_templates`)
	if err != nil {
		return nil, fmt.Errorf("querying question_templates: %w", err)
	}
	defer rows.Close()

	templates := make(map[string]Template)
	for rows.Next() {
		var id, attr, text sql.NullString
		if err := rows.Scan(&id, &attr, &text); err != nil {
			return nil, fmt.Errorf("scanning template row: %w", err)
		}
		qid := strings.TrimSpace(id.String)
		if qid == "" {
			continue
		}
		templates[qid] = Template{
			Attribute:    attr.String,
			QuestionText: text.String,
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating question_templates: %w", err)
	}
	return templates, nil
}

// Answers implements Source. Rows are ordered for deterministic output.
func (s *SQLSource) Answers(ctx context.Context) ([]Answer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, session_id, question_id, answer_text
		 FROM user_answers
		 ORDER BY user_id, session_id, question_id`)
	if err != nil {
		return nil, fmt.Errorf("querying user_answers: %w", err)
	}
	defer rows.Close()

	var answers []Answer
	for rows.Next() {
		var user, sess, qid, text sql.NullString
		if err := rows.Scan(&user, &sess, &qid, &text); err != nil {
			return nil, fmt.Errorf("scanning answer row: %w", err)
		}
		answers = append(answers, Answer{
			UserID:     user.String,
			SessionID:  sess.String,
			QuestionID: qid.String,
			AnswerText: text.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating user_answers: %w", err)
	}
	return answers, nil
}
