package project

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/knishimura/lingotube/internal/inference"
)

// Status of a project's lesson pipeline.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Project is one saved lesson built from a video.
type Project struct {
	ID               string         `db:"id" json:"id"`
	UserID           string         `db:"user_id" json:"user_id"`
	Title            string         `db:"title" json:"title"`
	SourceURL        string         `db:"source_url" json:"source_url"`
	Script           string         `db:"script" json:"script"`
	Vocabulary       VocabularyList `db:"vocabulary" json:"vocabulary"`
	Grammar          GrammarList    `db:"grammar" json:"grammar"`
	Sentences        SentenceList   `db:"practice_sentences" json:"practice_sentences"`
	DetectedLanguage string         `db:"detected_language" json:"detected_language"`
	VocabularyCount  int            `db:"vocabulary_count" json:"vocabulary_count"`
	GrammarCount     int            `db:"grammar_count" json:"grammar_count"`
	Favorite         bool           `db:"favorite" json:"favorite"`
	Status           string         `db:"status" json:"status"`
	JobID            sql.NullString `db:"job_id" json:"-"`
	ErrorMessage     sql.NullString `db:"error_message" json:"error_message,omitempty"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
	LastAccessedAt   time.Time      `db:"last_accessed_at" json:"last_accessed_at"`
}

// VocabularyList stores vocabulary items in a JSON column.
type VocabularyList []inference.Vocabulary

func (l VocabularyList) Value() (driver.Value, error) { return jsonValue(l) }
func (l *VocabularyList) Scan(src any) error          { return jsonScan(src, l) }

// GrammarList stores grammar patterns in a JSON column.
type GrammarList []inference.Grammar

func (l GrammarList) Value() (driver.Value, error) { return jsonValue(l) }
func (l *GrammarList) Scan(src any) error          { return jsonScan(src, l) }

// SentenceList stores practice sentences in a JSON column.
type SentenceList []inference.Sentence

func (l SentenceList) Value() (driver.Value, error) { return jsonValue(l) }
func (l *SentenceList) Scan(src any) error          { return jsonScan(src, l) }

// jsonValue marshals a list for storage. A nil list is stored as an empty
// array so reads never see SQL NULL.
func jsonValue(list any) (driver.Value, error) {
	encoded, err := json.Marshal(list)
	if err != nil {
		return nil, fmt.Errorf("json.Marshal > %w", err)
	}
	if string(encoded) == "null" {
		return []byte("[]"), nil
	}
	return encoded, nil
}

func jsonScan(src, dest any) error {
	switch value := src.(type) {
	case nil:
		return nil
	case []byte:
		if len(value) == 0 {
			return nil
		}
		if err := json.Unmarshal(value, dest); err != nil {
			return fmt.Errorf("json.Unmarshal > %w", err)
		}
		return nil
	case string:
		return jsonScan([]byte(value), dest)
	default:
		return fmt.Errorf("unsupported column type %T", src)
	}
}
