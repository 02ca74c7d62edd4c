package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/custodia-labs/paperqa/internal/core/domain"
	"github.com/custodia-labs/paperqa/internal/core/ports/driven"
	"github.com/custodia-labs/paperqa/internal/core/ports/driving"
	"github.com/custodia-labs/paperqa/internal/logger"
)

// Ensure QueryEngine implements the interface.
var _ driving.QueryEngine = (*QueryEngine)(nil)

// contextSeparator joins retrieved chunks in the context block.
const contextSeparator = "\n\n"

// CollectionReader is the read side of the index manager used for answering.
type CollectionReader interface {
	// Active returns the active collection, or domain.ErrNoDocument.
	Active(ctx context.Context) (*domain.Collection, error)

	// Retrieve returns the top-k chunks of the active collection.
	Retrieve(ctx context.Context, query []float32, k int) ([]domain.ScoredChunk, *domain.Collection, error)
}

// QueryEngine answers questions from the active collection with one
// completion call per question.
type QueryEngine struct {
	reader   CollectionReader
	gateway  *EmbeddingGateway
	llm      driven.LLMService
	prompts  driven.PromptStore
	history  driven.HistoryRecorder
	settings domain.RetrievalSettings
	llmCfg   domain.LLMSettings
	memo     *gocache.Cache
	now      func() time.Time
}

// NewQueryEngine creates a query engine.
// The prompts and history parameters are optional (can be nil).
func NewQueryEngine(
	reader CollectionReader,
	gateway *EmbeddingGateway,
	llm driven.LLMService,
	prompts driven.PromptStore,
	history driven.HistoryRecorder,
	settings domain.Settings,
) *QueryEngine {
	retrieval := settings.Retrieval
	if retrieval.TopK <= 0 {
		retrieval.TopK = domain.DefaultTopK
	}
	if retrieval.MaxContextChars <= 0 {
		retrieval.MaxContextChars = domain.DefaultMaxContextChars
	}
	if retrieval.QueryCacheTTL <= 0 {
		retrieval.QueryCacheTTL = domain.DefaultQueryCacheTTL
	}

	return &QueryEngine{
		reader:   reader,
		gateway:  gateway,
		llm:      llm,
		prompts:  prompts,
		history:  history,
		settings: retrieval,
		llmCfg:   settings.LLM,
		memo:     gocache.New(retrieval.QueryCacheTTL, 2*retrieval.QueryCacheTTL),
		now:      time.Now,
	}
}

// Ask answers a question from the top-k chunks of the active collection.
// The completion call is made exactly once and never retried.
func (e *QueryEngine) Ask(ctx context.Context, req domain.AskRequest) domain.AskResult {
	logger.Section("Ask")

	question := strings.TrimSpace(req.Question)
	if question == "" {
		return askFailure(req.Question, fmt.Errorf("%w: question is empty", domain.ErrInvalidInput))
	}
	logger.Debug("Question: %q", question)

	coll, err := e.reader.Active(ctx)
	if err == nil && coll.VectorCount == 0 {
		err = fmt.Errorf("%w: collection %s is empty", domain.ErrNoDocument, coll.ID)
	}
	if err != nil {
		return askFailure(question, err)
	}

	start := e.now()
	res := e.answer(ctx, question, req.TopK)
	res.ProcessingTime = e.now().Sub(start)

	e.record(ctx, req, coll.ID, res)
	return res
}

// Summarize asks the canned summary question.
func (e *QueryEngine) Summarize(ctx context.Context, req domain.AskRequest) domain.AskResult {
	req.Question = e.loadPrompt(driven.PromptSummary, domain.DefaultSummaryQuestion, 0)
	return e.Ask(ctx, req)
}

// answer runs retrieve, prompt and generate.
func (e *QueryEngine) answer(ctx context.Context, question string, topK int) domain.AskResult {
	if topK <= 0 {
		topK = e.settings.TopK
	}

	vec, err := e.embedQuestion(ctx, question)
	if err != nil {
		return askFailure(question, fmt.Errorf("%w: embed question: %w", domain.ErrRetrieval, err))
	}

	results, _, err := e.reader.Retrieve(ctx, vec, topK)
	if err != nil {
		if !errors.Is(err, domain.ErrNoDocument) && !errors.Is(err, domain.ErrRetrieval) {
			err = fmt.Errorf("%w: %w", domain.ErrRetrieval, err)
		}
		return askFailure(question, err)
	}
	logger.Debug("Retrieved %d chunks", len(results))

	prompt := fmt.Sprintf(e.loadPrompt(driven.PromptQuestionAnswer, domain.DefaultQAPrompt, 2),
		BuildContext(results, e.settings.MaxContextChars), question)

	done := logger.Timed("completion")
	answer, err := e.llm.Generate(ctx, prompt, driven.GenerateOptions{
		Temperature: e.llmCfg.Temperature,
		MaxTokens:   e.llmCfg.MaxTokens,
		System:      e.loadPrompt(driven.PromptSystem, domain.DefaultSystemPrompt, 0),
	})
	done()
	if err != nil {
		return askFailure(question, fmt.Errorf("%w: %w", domain.ErrCompletionService, err))
	}

	return domain.AskResult{
		Success:  true,
		Message:  fmt.Sprintf("Answered from %d chunks", len(results)),
		Question: question,
		Answer:   strings.TrimSpace(answer),
		Sources:  results,
	}
}

// embedQuestion embeds the question, memoising the vector per model.
func (e *QueryEngine) embedQuestion(ctx context.Context, question string) ([]float32, error) {
	key := e.gateway.ModelName() + "\x00" + question
	if v, ok := e.memo.Get(key); ok {
		logger.Debug("Question embedding served from memo")
		return v.([]float32), nil
	}

	vec, err := e.gateway.EmbedQuery(ctx, question)
	if err != nil {
		return nil, err
	}
	e.memo.Set(key, vec, gocache.DefaultExpiration)
	return vec, nil
}

// loadPrompt returns the named template, or fallback when the store is
// missing, fails, or the template has the wrong number of %s verbs.
func (e *QueryEngine) loadPrompt(name, fallback string, verbs int) string {
	if e.prompts == nil {
		return fallback
	}
	tmpl, err := e.prompts.Load(name)
	if err != nil || strings.TrimSpace(tmpl) == "" {
		return fallback
	}
	if strings.Count(tmpl, "%s") != verbs {
		logger.Warn("Prompt %q must contain %d %%s placeholders, using the built-in one", name, verbs)
		return fallback
	}
	return tmpl
}

// record hands the outcome to the history recorder. Failures are logged.
func (e *QueryEngine) record(ctx context.Context, req domain.AskRequest, collectionID string, res domain.AskResult) {
	if e.history == nil {
		return
	}
	rec := domain.QARecord{
		ID:           uuid.NewString(),
		SessionID:    req.SessionID,
		UserID:       req.UserID,
		CollectionID: collectionID,
		Question:     res.Question,
		Answer:       res.Answer,
		Latency:      res.ProcessingTime,
		Success:      res.Success,
		CreatedAt:    e.now().UTC(),
	}
	if err := e.history.Record(ctx, rec); err != nil {
		logger.Warn("Failed to record history: %v", err)
	}
}

// BuildContext concatenates chunk texts in retrieval order, without
// deduplication, and cuts the block at maxChars runes.
func BuildContext(results []domain.ScoredChunk, maxChars int) string {
	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString(contextSeparator)
		}
		b.WriteString(r.Chunk.Content)
	}
	text := b.String()

	if maxChars <= 0 || utf8.RuneCountInString(text) <= maxChars {
		return text
	}
	return string([]rune(text)[:maxChars])
}

func askFailure(question string, err error) domain.AskResult {
	return domain.AskResult{Question: question, Message: err.Error(), Err: err}
}
