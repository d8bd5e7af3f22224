package inference

import (
	"context"
)

//go:generate mockgen -source=interface.go -destination=../mocks/inference/mock_client.go -package=mock_inference

// Client interface defines the methods for AI inference operations
type Client interface {
	AnalyzeContent(ctx context.Context, params AnalyzeContentRequest) (AnalyzeContentResponse, error)
	GenerateSentences(ctx context.Context, params GenerateSentencesRequest) (GenerateSentencesResponse, error)
}

// Vocabulary is a single vocabulary item extracted from a transcript
type Vocabulary struct {
	Word       string `json:"word"`
	Definition string `json:"definition"`
	Difficulty string `json:"difficulty,omitempty"` // beginner, intermediate, advanced
}

// Grammar is a single grammar pattern observed in a transcript
type Grammar struct {
	Rule        string `json:"rule"`
	Example     string `json:"example,omitempty"` // a sentence from the transcript using the rule
	Explanation string `json:"explanation,omitempty"`
}

// Sentence is a generated practice sentence built from analyzed material
type Sentence struct {
	Text           string   `json:"text"`
	Translation    string   `json:"translation,omitempty"`
	Difficulty     string   `json:"difficulty,omitempty"`
	UsedVocabulary []string `json:"used_vocabulary,omitempty"`
	UsedGrammar    []string `json:"used_grammar,omitempty"`
}

// AnalyzeContentRequest holds the transcript to analyze
type AnalyzeContentRequest struct {
	Transcript string `json:"transcript"`
	// NativeLanguage is the learner's language for definitions and
	// explanations. Empty means English.
	NativeLanguage string `json:"native_language,omitempty"`
}

type AnalyzeContentResponse struct {
	DetectedLanguage string       `json:"detected_language"`
	Vocabulary       []Vocabulary `json:"vocabulary"`
	Grammar          []Grammar    `json:"grammar"`
}

// GenerateSentencesRequest holds the analyzed material to build sentences from
type GenerateSentencesRequest struct {
	Language   string       `json:"language"`
	Vocabulary []Vocabulary `json:"vocabulary"`
	Grammar    []Grammar    `json:"grammar"`
	Count      int          `json:"count"`
}

type GenerateSentencesResponse struct {
	Sentences []Sentence `json:"sentences"`
}

const (
	DefaultMaxRetryAttempts = 3
)
