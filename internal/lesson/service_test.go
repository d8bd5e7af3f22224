package lesson

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/knishimura/lingotube/internal/inference"
	mock_inference "github.com/knishimura/lingotube/internal/mocks/inference"
	"github.com/knishimura/lingotube/internal/project"
	"github.com/knishimura/lingotube/internal/transcript"
)

type fakeRepository struct {
	projects map[string]*project.Project
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{projects: map[string]*project.Project{}}
}

func (r *fakeRepository) Create(_ context.Context, p *project.Project) error {
	stored := *p
	r.projects[p.ID] = &stored
	return nil
}

func (r *fakeRepository) FindByID(_ context.Context, id string) (*project.Project, error) {
	p, ok := r.projects[id]
	if !ok {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

func (r *fakeRepository) FindByUser(_ context.Context, userID string) ([]project.Project, error) {
	var out []project.Project
	for _, p := range r.projects {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeRepository) FindByStatus(_ context.Context, status string) ([]project.Project, error) {
	var out []project.Project
	for _, p := range r.projects {
		if p.Status == status {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakeRepository) Update(_ context.Context, p *project.Project) error {
	if _, ok := r.projects[p.ID]; !ok {
		return project.ErrNotFound
	}
	stored := *p
	r.projects[p.ID] = &stored
	return nil
}

func (r *fakeRepository) SetFavorite(_ context.Context, id string, favorite bool) error {
	p, ok := r.projects[id]
	if !ok {
		return project.ErrNotFound
	}
	p.Favorite = favorite
	return nil
}

func (r *fakeRepository) Delete(_ context.Context, id string) error {
	if _, ok := r.projects[id]; !ok {
		return project.ErrNotFound
	}
	delete(r.projects, id)
	return nil
}

type fakeAcquirer struct {
	result transcript.Result
	err    error
}

func (a *fakeAcquirer) Acquire(context.Context, string) (transcript.Result, error) {
	return a.result, a.err
}

const sourceURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

func TestService_CreateFromURL_Completed(t *testing.T) {
	ctrl := gomock.NewController(t)
	ai := mock_inference.NewMockClient(ctrl)
	ai.EXPECT().
		AnalyzeContent(gomock.Any(), gomock.Any()).
		Return(inference.AnalyzeContentResponse{
			DetectedLanguage: "es",
			Vocabulary: []inference.Vocabulary{
				{Word: "desayuno", Definition: "breakfast", Difficulty: "beginner"},
			},
			Grammar: []inference.Grammar{
				{Rule: "reflexive verbs", Example: "Me levanto temprano."},
			},
		}, nil)
	ai.EXPECT().
		GenerateSentences(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, params inference.GenerateSentencesRequest) (inference.GenerateSentencesResponse, error) {
			assert.Equal(t, "es", params.Language)
			assert.Equal(t, 3, params.Count)
			return inference.GenerateSentencesResponse{
				Sentences: []inference.Sentence{{Text: "Tomo el desayuno."}},
			}, nil
		})

	repo := newFakeRepository()
	service := NewService(Options{
		Repository:    repo,
		Transcripts:   &fakeAcquirer{result: transcript.Result{Status: transcript.StatusCompleted, Transcript: "Me levanto temprano y tomo el desayuno.", VideoTitle: "Morning Routine"}},
		AI:            ai,
		SentenceCount: 3,
	})

	p, err := service.CreateFromURL(context.Background(), "user-1", sourceURL)
	require.NoError(t, err)
	assert.Equal(t, project.StatusCompleted, p.Status)
	assert.Equal(t, "Morning Routine", p.Title)
	assert.Equal(t, "es", p.DetectedLanguage)
	assert.Equal(t, 1, p.VocabularyCount)
	assert.Equal(t, 1, p.GrammarCount)
	require.Len(t, p.Sentences, 1)
	assert.False(t, p.ErrorMessage.Valid)

	stored, err := repo.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, project.StatusCompleted, stored.Status)
}

func TestService_CreateFromURL_AnalysisFailureDegrades(t *testing.T) {
	ctrl := gomock.NewController(t)
	ai := mock_inference.NewMockClient(ctrl)
	ai.EXPECT().
		AnalyzeContent(gomock.Any(), gomock.Any()).
		Return(inference.AnalyzeContentResponse{}, errors.New("response error 500: overloaded"))
	ai.EXPECT().
		GenerateSentences(gomock.Any(), gomock.Any()).
		Return(inference.GenerateSentencesResponse{}, nil)

	repo := newFakeRepository()
	service := NewService(Options{
		Repository:  repo,
		Transcripts: &fakeAcquirer{result: transcript.Result{Status: transcript.StatusCompleted, Transcript: "some spoken words"}},
		AI:          ai,
	})

	p, err := service.CreateFromURL(context.Background(), "user-1", sourceURL)
	require.NoError(t, err)
	assert.Equal(t, project.StatusCompleted, p.Status, "a partial lesson still completes")
	assert.Empty(t, p.Vocabulary)
	assert.Empty(t, p.Grammar)
	require.True(t, p.ErrorMessage.Valid)
	assert.Contains(t, p.ErrorMessage.String, "content analysis failed")
}

func TestService_CreateFromURL_InvalidURL(t *testing.T) {
	repo := newFakeRepository()
	service := NewService(Options{Repository: repo, Transcripts: &fakeAcquirer{}})

	_, err := service.CreateFromURL(context.Background(), "user-1", "https://example.com/nope")
	require.Error(t, err)
	assert.Empty(t, repo.projects, "no project row for an unparseable URL")
}

func TestService_CreateFromURL_AcquisitionFailure(t *testing.T) {
	repo := newFakeRepository()
	service := NewService(Options{
		Repository:  repo,
		Transcripts: &fakeAcquirer{err: transcript.ErrTooShort},
	})

	p, err := service.CreateFromURL(context.Background(), "user-1", sourceURL)
	require.Error(t, err)
	assert.ErrorIs(t, err, transcript.ErrTooShort)
	require.NotNil(t, p)
	assert.Equal(t, project.StatusFailed, p.Status)
	require.True(t, p.ErrorMessage.Valid)
	assert.Contains(t, p.ErrorMessage.String, "too little spoken content")
}

func TestService_CreateFromURL_PendingJob(t *testing.T) {
	repo := newFakeRepository()
	service := NewService(Options{
		Repository:  repo,
		Transcripts: &fakeAcquirer{result: transcript.Result{Status: transcript.StatusPending, JobID: "job-42"}},
	})

	p, err := service.CreateFromURL(context.Background(), "user-1", sourceURL)
	require.NoError(t, err)
	assert.Equal(t, project.StatusProcessing, p.Status)
	require.True(t, p.JobID.Valid)
	assert.Equal(t, "job-42", p.JobID.String)
	assert.Empty(t, p.Script)
}

func TestService_Regenerate(t *testing.T) {
	ctrl := gomock.NewController(t)
	ai := mock_inference.NewMockClient(ctrl)
	ai.EXPECT().
		AnalyzeContent(gomock.Any(), gomock.Any()).
		Return(inference.AnalyzeContentResponse{
			DetectedLanguage: "fr",
			Vocabulary:       []inference.Vocabulary{{Word: "matin", Definition: "morning"}},
		}, nil)
	ai.EXPECT().
		GenerateSentences(gomock.Any(), gomock.Any()).
		Return(inference.GenerateSentencesResponse{
			Sentences: []inference.Sentence{{Text: "Je me lève le matin."}},
		}, nil)

	repo := newFakeRepository()
	existing := &project.Project{
		ID:     "p-1",
		UserID: "user-1",
		Script: "Je me lève tôt le matin.",
		Status: project.StatusCompleted,
	}
	require.NoError(t, repo.Create(context.Background(), existing))

	service := NewService(Options{Repository: repo, AI: ai})

	p, err := service.Regenerate(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, "fr", p.DetectedLanguage)
	require.Len(t, p.Vocabulary, 1)
	require.Len(t, p.Sentences, 1)
}

func TestService_Regenerate_NoScript(t *testing.T) {
	repo := newFakeRepository()
	require.NoError(t, repo.Create(context.Background(), &project.Project{ID: "p-1", Status: project.StatusProcessing}))

	service := NewService(Options{Repository: repo})

	_, err := service.Regenerate(context.Background(), "p-1")
	assert.ErrorIs(t, err, ErrNoScript)
}

func TestService_Regenerate_NotFound(t *testing.T) {
	service := NewService(Options{Repository: newFakeRepository()})

	_, err := service.Regenerate(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_CorrectLanguage(t *testing.T) {
	ctrl := gomock.NewController(t)
	ai := mock_inference.NewMockClient(ctrl)
	// Only sentence generation runs: the vocabulary and grammar came from the
	// unchanged transcript.
	ai.EXPECT().
		GenerateSentences(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, params inference.GenerateSentencesRequest) (inference.GenerateSentencesResponse, error) {
			assert.Equal(t, "pt", params.Language)
			return inference.GenerateSentencesResponse{
				Sentences: []inference.Sentence{{Text: "Tomo café de manhã."}},
			}, nil
		})

	repo := newFakeRepository()
	require.NoError(t, repo.Create(context.Background(), &project.Project{
		ID:               "p-1",
		Script:           "Tomo café de manhã todos os dias.",
		DetectedLanguage: "es",
		Vocabulary:       project.VocabularyList{{Word: "café", Definition: "coffee"}},
		Status:           project.StatusCompleted,
	}))

	service := NewService(Options{Repository: repo, AI: ai})

	p, err := service.CorrectLanguage(context.Background(), "p-1", "pt")
	require.NoError(t, err)
	assert.Equal(t, "pt", p.DetectedLanguage)
	require.Len(t, p.Sentences, 1)
	assert.Len(t, p.Vocabulary, 1, "vocabulary survives a language correction")
}

func TestService_CompleteFromJob(t *testing.T) {
	ctrl := gomock.NewController(t)
	ai := mock_inference.NewMockClient(ctrl)
	ai.EXPECT().
		AnalyzeContent(gomock.Any(), gomock.Any()).
		Return(inference.AnalyzeContentResponse{DetectedLanguage: "es"}, nil)
	ai.EXPECT().
		GenerateSentences(gomock.Any(), gomock.Any()).
		Return(inference.GenerateSentencesResponse{}, nil)

	repo := newFakeRepository()
	require.NoError(t, repo.Create(context.Background(), &project.Project{
		ID:     "p-1",
		Title:  "dQw4w9WgXcQ",
		Status: project.StatusProcessing,
	}))

	service := NewService(Options{Repository: repo, AI: ai, MinWords: 5})
	service.completeFromJob("p-1", transcript.Completion{
		JobID:      "job-42",
		Transcript: "Me levanto temprano y tomo el desayuno.",
		VideoTitle: "Morning Routine",
	})

	p, err := repo.FindByID(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, project.StatusCompleted, p.Status)
	assert.Equal(t, "Morning Routine", p.Title)
	assert.Equal(t, "es", p.DetectedLanguage)
}

func TestService_CompleteFromJob_ShortTranscript(t *testing.T) {
	ctrl := gomock.NewController(t)
	ai := mock_inference.NewMockClient(ctrl) // no calls expected

	repo := newFakeRepository()
	require.NoError(t, repo.Create(context.Background(), &project.Project{
		ID:     "p-1",
		Status: project.StatusProcessing,
	}))

	service := NewService(Options{Repository: repo, AI: ai, MinWords: 5})
	service.completeFromJob("p-1", transcript.Completion{
		JobID:      "job-42",
		Transcript: "Hola.",
	})

	p, err := repo.FindByID(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, project.StatusFailed, p.Status)
	require.True(t, p.ErrorMessage.Valid)
	assert.Contains(t, p.ErrorMessage.String, "spoken content")
	assert.Empty(t, p.Script)
}

func TestService_CompleteFromJob_JobFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	ai := mock_inference.NewMockClient(ctrl)

	repo := newFakeRepository()
	require.NoError(t, repo.Create(context.Background(), &project.Project{
		ID:     "p-1",
		Status: project.StatusProcessing,
	}))

	service := NewService(Options{Repository: repo, AI: ai})
	service.completeFromJob("p-1", transcript.Completion{
		JobID: "job-42",
		Err:   errors.New("audio stream expired"),
	})

	p, err := repo.FindByID(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, project.StatusFailed, p.Status)
	require.True(t, p.ErrorMessage.Valid)
	assert.Contains(t, p.ErrorMessage.String, "audio stream expired")
}
