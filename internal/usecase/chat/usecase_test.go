package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/askdocs/askdocs-backend/internal/config"
	"github.com/askdocs/askdocs-backend/internal/entity"
)

type stubAI struct {
	embedCalls int
	embedErr   error
	lastPrompt string
	answer     string
	answerErr  error
}

func (s *stubAI) EmbedText(_ context.Context, _ string) ([]float32, error) {
	s.embedCalls++
	if s.embedErr != nil {
		return nil, s.embedErr
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (s *stubAI) Answer(_ context.Context, prompt string) (string, error) {
	s.lastPrompt = prompt
	if s.answerErr != nil {
		return "", s.answerErr
	}
	return s.answer, nil
}

type stubSearcher struct {
	candidates []entity.RetrievalCandidate
	err        error

	gotMaxDistance float64
	gotLimit       int
}

func (s *stubSearcher) SearchSimilar(_ context.Context, _ []float32, maxDistance float64, limit int) ([]entity.RetrievalCandidate, error) {
	s.gotMaxDistance = maxDistance
	s.gotLimit = limit
	return s.candidates, s.err
}

func testRetrievalConfig() config.RetrievalConfig {
	return config.RetrievalConfig{
		ContextTokenBudget: 3000,
		MaxDistance:        0.8,
		MaxCandidates:      5,
		QuestionMaxTokens:  150,
		EmbeddingCacheTTL:  time.Minute,
	}
}

func TestAskAnswersFromRetrievedSections(t *testing.T) {
	ai := &stubAI{answer: "the lease ends in March"}
	searcher := &stubSearcher{candidates: []entity.RetrievalCandidate{
		{Content: "the lease runs until March 2027", Similarity: 0.93},
	}}

	uc := NewUsecase(ai, searcher, fieldTokenizer{}, testRetrievalConfig(), zap.NewNop())

	answer, err := uc.Ask(context.Background(), "when does the lease end?")
	require.NoError(t, err)
	assert.Equal(t, "the lease ends in March", answer)

	assert.Equal(t, 0.8, searcher.gotMaxDistance)
	assert.Equal(t, 5, searcher.gotLimit)
	assert.Contains(t, ai.lastPrompt, "lease runs until March 2027")
	assert.Contains(t, ai.lastPrompt, "when does the lease end?")
}

func TestAskStillAnswersWhenNothingRetrieved(t *testing.T) {
	ai := &stubAI{answer: "I could not find any information on this topic."}
	searcher := &stubSearcher{}

	uc := NewUsecase(ai, searcher, fieldTokenizer{}, testRetrievalConfig(), zap.NewNop())

	answer, err := uc.Ask(context.Background(), "what about dragons?")
	require.NoError(t, err)
	assert.Equal(t, "I could not find any information on this topic.", answer)
	assert.Contains(t, ai.lastPrompt, noDocumentsPlaceholder)
}

func TestAskRejectsEmptyQuestion(t *testing.T) {
	uc := NewUsecase(&stubAI{}, &stubSearcher{}, fieldTokenizer{}, testRetrievalConfig(), zap.NewNop())

	_, err := uc.Ask(context.Background(), "   \t ")
	assert.ErrorIs(t, err, entity.ErrQuestionEmpty)

	// Cleaning strips non-linguistic symbols before the emptiness
	// check, so a question made of them alone is empty too.
	_, err = uc.Ask(context.Background(), "@#$%^&*")
	assert.ErrorIs(t, err, entity.ErrQuestionEmpty)
}

func TestAskRejectsOverlongQuestion(t *testing.T) {
	cfg := testRetrievalConfig()
	cfg.QuestionMaxTokens = 5
	ai := &stubAI{}

	uc := NewUsecase(ai, &stubSearcher{}, fieldTokenizer{}, cfg, zap.NewNop())

	_, err := uc.Ask(context.Background(), "one two three four five six")
	assert.ErrorIs(t, err, entity.ErrQuestionTooLong)
	assert.Zero(t, ai.embedCalls)
}

func TestAskReusesCachedQuestionEmbedding(t *testing.T) {
	ai := &stubAI{answer: "same answer"}
	searcher := &stubSearcher{}

	uc := NewUsecase(ai, searcher, fieldTokenizer{}, testRetrievalConfig(), zap.NewNop())

	_, err := uc.Ask(context.Background(), "repeated question")
	require.NoError(t, err)
	_, err = uc.Ask(context.Background(), "repeated question")
	require.NoError(t, err)

	assert.Equal(t, 1, ai.embedCalls)
}

func TestAskPropagatesBackendFailures(t *testing.T) {
	embedErr := errors.New("embedding backend unavailable")
	uc := NewUsecase(&stubAI{embedErr: embedErr}, &stubSearcher{}, fieldTokenizer{}, testRetrievalConfig(), zap.NewNop())
	_, err := uc.Ask(context.Background(), "any question")
	assert.ErrorIs(t, err, embedErr)

	searchErr := errors.New("database down")
	uc = NewUsecase(&stubAI{}, &stubSearcher{err: searchErr}, fieldTokenizer{}, testRetrievalConfig(), zap.NewNop())
	_, err = uc.Ask(context.Background(), "any question")
	assert.ErrorIs(t, err, searchErr)

	answerErr := errors.New("completion failed")
	uc = NewUsecase(&stubAI{answerErr: answerErr}, &stubSearcher{}, fieldTokenizer{}, testRetrievalConfig(), zap.NewNop())
	_, err = uc.Ask(context.Background(), "any question")
	assert.ErrorIs(t, err, answerErr)
}
