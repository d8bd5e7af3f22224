package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"resty.dev/v3"

	"github.com/knishimura/lingotube/internal/inference"
)

type Client struct {
	httpClient       *resty.Client
	model            string
	maxRetryAttempts uint
}

func NewClient(apiKey, model string, retryAttempts uint) *Client {
	client := resty.New()
	client.SetBaseURL("https://api.openai.com/v1")
	client.SetHeader("Authorization", "Bearer "+apiKey)
	client.SetHeader("Content-Type", "application/json")

	return &Client{
		httpClient:       client,
		model:            model,
		maxRetryAttempts: retryAttempts,
	}
}

func (client *Client) Close() error {
	return client.httpClient.Close()
}

// GetModel returns the model name configured for this client
func (client *Client) GetModel() string {
	return client.model
}

// SetBaseURL overrides the API origin. Used by tests.
func (client *Client) SetBaseURL(baseURL string) {
	client.httpClient.SetBaseURL(baseURL)
}

type ChatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float32   `json:"temperature,omitempty"`
}

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

type Choice struct {
	Index        int           `json:"index"`
	Message      ChoiceMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type ChoiceMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// AnalyzeContent implements the inference.Client interface
func (client *Client) AnalyzeContent(
	ctx context.Context,
	params inference.AnalyzeContentRequest,
) (inference.AnalyzeContentResponse, error) {
	var result inference.AnalyzeContentResponse
	if err := retry.Do(
		func() error {
			response, err := client.analyzeContent(ctx, params)
			if err != nil {
				if !isRetryableError(err) {
					return retry.Unrecoverable(err)
				}
				return err
			}
			result = response
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(client.maxRetryAttempts+1),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			return retry.BackOffDelay(n, err, config)
		}),
	); err != nil {
		return inference.AnalyzeContentResponse{}, err
	}
	return result, nil
}

const analyzeSystemPrompt = `You are a language teacher preparing a lesson from a video transcript.

GOAL
Return ONLY a JSON object with exactly these fields:
- "detected_language": the BCP 47 language code of the transcript (e.g. "en", "es", "ja")
- "vocabulary": an array of 10-20 objects {"word": "<word or phrase from the transcript>", "definition": "<plain definition>", "difficulty": "beginner" | "intermediate" | "advanced"}
- "grammar": an array of 5-10 objects {"rule": "<name of the grammar pattern>", "example": "<a sentence from the transcript using it>", "explanation": "<brief explanation>"}

RULES
- Pick vocabulary a learner of the transcript's language would actually study: skip trivial words (articles, basic pronouns), prefer words central to the video's topic.
- Every "example" must be quoted or minimally adapted from the transcript, never invented.
- Write definitions and explanations in the learner's native language when one is given, otherwise in English.
- STRICT OUTPUT: no text outside the JSON object. No markdown fences.`

func (client *Client) analyzeContent(
	ctx context.Context,
	params inference.AnalyzeContentRequest,
) (inference.AnalyzeContentResponse, error) {
	if strings.TrimSpace(params.Transcript) == "" {
		return inference.AnalyzeContentResponse{}, fmt.Errorf("empty transcript")
	}

	userContent := params.Transcript
	if params.NativeLanguage != "" {
		userContent = fmt.Sprintf("Learner's native language: %s\n\nTranscript:\n%s", params.NativeLanguage, params.Transcript)
	}

	requestBody := ChatCompletionRequest{
		Model:       client.model,
		Temperature: 0.3,
		Messages: []Message{
			{Role: RoleSystem, Content: analyzeSystemPrompt},
			{Role: RoleUser, Content: userContent},
		},
	}

	content, err := client.complete(ctx, requestBody)
	if err != nil {
		return inference.AnalyzeContentResponse{}, err
	}

	var decoded inference.AnalyzeContentResponse
	cleaned := sanitizeModelJSON(content)
	if err := json.NewDecoder(strings.NewReader(cleaned)).Decode(&decoded); err != nil {
		slog.Default().Error("Failed to parse analysis response as JSON",
			"transcriptChars", len(params.Transcript),
			"error", err)
		return inference.AnalyzeContentResponse{}, fmt.Errorf("json.Unmarshal(%s) > %w", cleaned, err)
	}
	return decoded, nil
}

// GenerateSentences implements the inference.Client interface
func (client *Client) GenerateSentences(
	ctx context.Context,
	params inference.GenerateSentencesRequest,
) (inference.GenerateSentencesResponse, error) {
	var result inference.GenerateSentencesResponse
	if err := retry.Do(
		func() error {
			response, err := client.generateSentences(ctx, params)
			if err != nil {
				if !isRetryableError(err) {
					return retry.Unrecoverable(err)
				}
				return err
			}
			result = response
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(client.maxRetryAttempts+1),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			return retry.BackOffDelay(n, err, config)
		}),
	); err != nil {
		return inference.GenerateSentencesResponse{}, err
	}
	return result, nil
}

const generateSystemPrompt = `You are a language teacher writing practice sentences for a learner.

GOAL
Given vocabulary items and grammar patterns, return ONLY a JSON object:
- "sentences": an array of objects {"text": "<sentence in the target language>", "translation": "<English translation>", "difficulty": "beginner" | "intermediate" | "advanced", "used_vocabulary": ["<words used>"], "used_grammar": ["<rules used>"]}

RULES
- Each sentence must use at least one of the given vocabulary items or grammar patterns, and list which ones under used_vocabulary / used_grammar.
- Write natural sentences a native speaker would say, not textbook filler.
- Vary difficulty across the set.
- STRICT OUTPUT: no text outside the JSON object. No markdown fences.`

func (client *Client) generateSentences(
	ctx context.Context,
	params inference.GenerateSentencesRequest,
) (inference.GenerateSentencesResponse, error) {
	if len(params.Vocabulary) == 0 && len(params.Grammar) == 0 {
		return inference.GenerateSentencesResponse{}, nil
	}

	material, err := json.Marshal(struct {
		Language   string                 `json:"language"`
		Count      int                    `json:"count"`
		Vocabulary []inference.Vocabulary `json:"vocabulary"`
		Grammar    []inference.Grammar    `json:"grammar"`
	}{
		Language:   params.Language,
		Count:      params.Count,
		Vocabulary: params.Vocabulary,
		Grammar:    params.Grammar,
	})
	if err != nil {
		return inference.GenerateSentencesResponse{}, fmt.Errorf("json.Marshal(material) > %w", err)
	}

	requestBody := ChatCompletionRequest{
		Model:       client.model,
		Temperature: 0.7,
		Messages: []Message{
			{Role: RoleSystem, Content: generateSystemPrompt},
			{Role: RoleUser, Content: string(material)},
		},
	}

	content, err := client.complete(ctx, requestBody)
	if err != nil {
		return inference.GenerateSentencesResponse{}, err
	}

	var decoded inference.GenerateSentencesResponse
	cleaned := sanitizeModelJSON(content)
	if err := json.NewDecoder(strings.NewReader(cleaned)).Decode(&decoded); err != nil {
		return inference.GenerateSentencesResponse{}, fmt.Errorf("json.Unmarshal(%s) > %w", cleaned, err)
	}
	return decoded, nil
}

// complete posts one chat completion request and returns the first choice's
// message content.
func (client *Client) complete(ctx context.Context, requestBody ChatCompletionRequest) (string, error) {
	response, err := client.httpClient.R().
		SetContext(ctx).
		SetBody(requestBody).
		SetResult(&ChatCompletionResponse{}).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("httpClient.Post > %w", err)
	}
	if response.IsError() {
		return "", fmt.Errorf("response error %d: %s", response.StatusCode(), response.String())
	}

	responseBody := response.Result().(*ChatCompletionResponse)
	if responseBody == nil || len(responseBody.Choices) == 0 {
		return "", fmt.Errorf("empty response body or choices: %s", response.String())
	}

	content := responseBody.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("empty response content: %s", response.String())
	}
	slog.Default().Debug("openai response content",
		"model", requestBody.Model,
		"usage", responseBody.Usage,
	)
	return content, nil
}
