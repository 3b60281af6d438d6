package export

import (
	"context"
	"fmt"
	"os"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/sakay/genchat/internal/log"
)

// Firestore collection and field names for the export schema.
const (
	templatesCollection = "question_templates"
	answersCollection   = "user_answers"

	fieldQuestionID   = "question_id"
	fieldAttribute    = "attribute"
	fieldQuestionText = "question_text"
	fieldUserID       = "user_id"
	fieldSessionID    = "session_id"
	fieldAnswerText   = "answer_text"
)

// FirestoreConfig selects the Firestore connection mode.
type FirestoreConfig struct {
	// ProjectID is the Firebase project. Required; the emulator accepts
	// any demo project id.
	ProjectID string

	// CredPath is the service-account JSON file. Required unless
	// EmulatorHost is set.
	CredPath string

	// EmulatorHost connects to a local Firestore emulator (host:port)
	// without credentials.
	EmulatorHost string

	Logger log.Logger
}

// FirestoreSource reads templates and answers from Firestore.
type FirestoreSource struct {
	client *firestore.Client
}

// NewFirestoreSource connects to Firestore. With an emulator host set, no
// credential file is needed; otherwise its absence is an error.
func NewFirestoreSource(ctx context.Context, cfg FirestoreConfig) (*FirestoreSource, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	if cfg.EmulatorHost != "" {
		// The client library picks the emulator up from the environment.
		if err := os.Setenv("FIRESTORE_EMULATOR_HOST", cfg.EmulatorHost); err != nil {
			return nil, fmt.Errorf("setting emulator host: %w", err)
		}
		logger.Info("using firestore emulator", "host", cfg.EmulatorHost)

		client, err := firestore.NewClient(ctx, cfg.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("connecting to firestore emulator: %w", err)
		}
		return &FirestoreSource{client: client}, nil
	}

	if cfg.CredPath == "" {
		return nil, fmt.Errorf("FIREBASE_CRED_PATH is not set and no emulator host is configured")
	}

	client, err := firestore.NewClient(ctx, cfg.ProjectID, option.WithCredentialsFile(cfg.CredPath))
	if err != nil {
		return nil, fmt.Errorf("connecting to firestore: %w", err)
	}
	return &FirestoreSource{client: client}, nil
}

// Close releases the underlying client.
func (s *FirestoreSource) Close() error {
	return s.client.Close()
}

// Templates implements Source. Documents without a question id are skipped.
func (s *FirestoreSource) Templates(ctx context.Context) (map[string]Template, error) {
	templates := make(map[string]Template)

	iter := s.client.Collection(templatesCollection).Documents(ctx)
	defer iter.Stop()
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterating %s: %w", templatesCollection, err)
		}

		data := doc.Data()
		id := strings.TrimSpace(stringField(data, fieldQuestionID))
		if id == "" {
			continue
		}
		templates[id] = Template{
			Attribute:    stringField(data, fieldAttribute),
			QuestionText: stringField(data, fieldQuestionText),
		}
	}
	return templates, nil
}

// Answers implements Source.
func (s *FirestoreSource) Answers(ctx context.Context) ([]Answer, error) {
	var answers []Answer

	iter := s.client.Collection(answersCollection).Documents(ctx)
	defer iter.Stop()
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterating %s: %w", answersCollection, err)
		}

		data := doc.Data()
		answers = append(answers, Answer{
			UserID:     stringField(data, fieldUserID),
			SessionID:  stringField(data, fieldSessionID),
			QuestionID: stringField(data, fieldQuestionID),
			AnswerText: stringField(data, fieldAnswerText),
		})
	}
	return answers, nil
}

// stringField renders a document field as a string. Firestore numbers come
// back as int64/float64; question ids in particular may be either.
func stringField(data map[string]any, key string) string {
	v, ok := data[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
