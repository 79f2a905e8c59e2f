// Package ask answers questions over the indexed documents: embed the
// question, retrieve the nearest chunks, and generate a grounded answer.
package ask

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/domain"
)

// contextDivider separates retrieved chunks inside the prompt.
const contextDivider = "\n\n---\n\n"

// noAnswerText is returned when nothing relevant is indexed.
const noAnswerText = "I could not find relevant information in the indexed documents."

// Config holds retrieval parameters.
type Config struct {
	TopK           int
	MaxQuestionLen int
}

// Service handles question answering over the chunk index.
type Service struct {
	embedder  Embedder
	reader    ChunkReader
	generator Generator
	logger    *zap.Logger

	topK           int
	maxQuestionLen int
}

// New creates a question-answering service.
func New(embedder Embedder, reader ChunkReader, generator Generator, cfg Config, logger *zap.Logger) *Service {
	topK := cfg.TopK
	if topK <= 0 {
		topK = 5
	}
	maxLen := cfg.MaxQuestionLen
	if maxLen <= 0 {
		maxLen = 2000
	}
	return &Service{
		embedder:       embedder,
		reader:         reader,
		generator:      generator,
		logger:         logger,
		topK:           topK,
		maxQuestionLen: maxLen,
	}
}

// Retrieve returns the chunks most similar to the question, joined into a
// single context block, plus deduplicated source references. Zero matches
// is a valid outcome, not an error.
func (s *Service) Retrieve(ctx context.Context, question string) (domain.RetrievalResult, error) {
	question, err := s.validate(question)
	if err != nil {
		return domain.RetrievalResult{}, err
	}

	embResult, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return domain.RetrievalResult{}, fmt.Errorf("vectorize question: %w", err)
	}

	matches, err := s.reader.Query(ctx, embResult.Embedding, s.topK)
	if err != nil {
		return domain.RetrievalResult{}, fmt.Errorf("query chunks: %w", err)
	}

	if len(matches) == 0 {
		return domain.RetrievalResult{}, nil
	}

	texts := make([]string, 0, len(matches))
	for _, m := range matches {
		texts = append(texts, m.Text)
	}

	return domain.RetrievalResult{
		Context:    strings.Join(texts, contextDivider),
		Sources:    dedupSources(matches),
		MatchCount: len(matches),
	}, nil
}

// Ask retrieves context for the question and generates an answer from it.
// With no matches the generator is never called.
func (s *Service) Ask(ctx context.Context, question string) (domain.Answer, error) {
	result, err := s.Retrieve(ctx, question)
	if err != nil {
		return domain.Answer{}, err
	}

	if result.MatchCount == 0 {
		return domain.Answer{Text: noAnswerText}, nil
	}

	answer, err := s.generator.Generate(ctx, buildPrompt(result.Context, strings.TrimSpace(question)))
	if err != nil {
		return domain.Answer{}, fmt.Errorf("generate answer: %w", err)
	}

	return domain.Answer{
		Text:       answer,
		Sources:    result.Sources,
		MatchCount: result.MatchCount,
	}, nil
}

func (s *Service) validate(question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("question is empty: %w", domain.ErrInvalidQuestion)
	}
	// Length is measured in runes so multibyte questions are not
	// penalized for their encoding.
	if utf8.RuneCountInString(question) > s.maxQuestionLen {
		return "", fmt.Errorf("question exceeds %d characters: %w", s.maxQuestionLen, domain.ErrInvalidQuestion)
	}
	return question, nil
}

// dedupSources keeps one reference per document, preserving match order so
// the best-scoring chunk of each document wins.
func dedupSources(matches []domain.QueryMatch) []domain.SourceRef {
	seen := make(map[string]struct{}, len(matches))
	refs := make([]domain.SourceRef, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m.Source]; ok {
			continue
		}
		seen[m.Source] = struct{}{}
		refs = append(refs, domain.SourceRef{
			Name:       m.Source,
			Score:      m.Score,
			ChunkIndex: m.ChunkIndex,
		})
	}
	return refs
}

func buildPrompt(context, question string) string {
	var b strings.Builder
	b.WriteString("Answer the question using only the context below. ")
	b.WriteString("If the context does not contain the answer, say so.\n\n")
	b.WriteString("Context:\n")
	b.WriteString(context)
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	return b.String()
}
