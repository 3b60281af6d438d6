// Package export produces the answers CSV from either Firestore or a
// relational database.
//
// Both backends implement Source; the caller selects one at startup from
// configuration. The output schema is fixed: six columns, header row,
// UTF-8 with a byte-order mark so spreadsheet tools detect the encoding.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/sakay/genchat/internal/log"
)

// Header is the fixed CSV column order.
var Header = []string{"user_id", "session_id", "question_id", "attribute", "question_text", "answer_text"}

// utf8BOM marks the output as UTF-8 for spreadsheet imports.
const utf8BOM = "\uFEFF"

// Template holds the joinable fields of a question template.
type Template struct {
	Attribute    string
	QuestionText string
}

// Answer is one user answer row before the template join.
type Answer struct {
	UserID     string
	SessionID  string
	QuestionID string
	AnswerText string
}

// Source reads templates and answers from a storage backend.
type Source interface {
	// Templates returns question templates keyed by question id.
	// Templates without an id are skipped by implementations.
	Templates(ctx context.Context) (map[string]Template, error)

	// Answers returns all user answers.
	Answers(ctx context.Context) ([]Answer, error)
}

// Write joins answers against templates by question id and writes the CSV
// to w. Unknown question ids produce empty attribute and question text.
// Returns the number of answer rows written.
func Write(ctx context.Context, src Source, w io.Writer, logger log.Logger) (int, error) {
	templates, err := src.Templates(ctx)
	if err != nil {
		return 0, fmt.Errorf("reading question templates: %w", err)
	}
	logger.Info("loaded question templates", "count", len(templates))

	answers, err := src.Answers(ctx)
	if err != nil {
		return 0, fmt.Errorf("reading user answers: %w", err)
	}

	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return 0, fmt.Errorf("writing BOM: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return 0, fmt.Errorf("writing header: %w", err)
	}

	for _, a := range answers {
		tpl := templates[a.QuestionID]
		record := []string{a.UserID, a.SessionID, a.QuestionID, tpl.Attribute, tpl.QuestionText, a.AnswerText}
		if err := cw.Write(record); err != nil {
			return 0, fmt.Errorf("writing row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("flushing csv: %w", err)
	}

	logger.Info("export complete", "rows", len(answers))
	return len(answers), nil
}

// WriteFile writes the CSV to path, creating or truncating it.
func WriteFile(ctx context.Context, src Source, path string, logger log.Logger) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("creating %s: %w", path, err)
	}

	n, err := Write(ctx, src, f, logger)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("closing %s: %w", path, closeErr)
	}
	return n, err
}
