// ABOUTME: Retrieval-augmented answerer turning a question into a grounded reply
// ABOUTME: Every failure becomes a user-facing message, nothing escapes to the caller
package answer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/logging"
	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/models"
)

// User-facing messages
const (
	MsgBlankQuestion = "Please ask a question."
	MsgOutOfDomain   = "I can only answer questions about %s. Please ask something related to the university."
	MsgNotReady      = "The knowledge base is still being prepared. Please try again in a moment."
	MsgNoDocuments   = "I could not find any matching documents for that question."
	MsgApology       = "Sorry, I could not generate an answer right now. Please try again later."
	MsgSchemaDrift   = "Sorry, the knowledge base is out of date and needs to be rebuilt. Please ask an administrator to re-run ingestion."
)

// ContextSeparator joins retrieved chunks in the prompt
const ContextSeparator = "\n---\n"

// schemaDriftSignature marks a stale index schema in an error message
const schemaDriftSignature = "no such column"

// Checker is the relevance gate
type Checker interface {
	Check(ctx context.Context, query string) models.Verdict
}

// Embedder turns text into a vector
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Searcher returns the k nearest chunks in ascending distance order
type Searcher interface {
	Search(ctx context.Context, vector []float64, k int) ([]models.SearchResult, error)
}

// Generator completes a prompt
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Options configures an Answerer
type Options struct {
	InstitutionName string
	TopK            int
	Logger          *slog.Logger
}

// Answerer orchestrates gate, retrieval and generation
type Answerer struct {
	gate        Checker
	embedder    Embedder
	searcher    Searcher
	generator   Generator
	institution string
	topK        int
	logger      *slog.Logger
}

// New creates an Answerer
func New(gate Checker, embedder Embedder, searcher Searcher, generator Generator, opts Options) *Answerer {
	if opts.TopK <= 0 {
		opts.TopK = 3
	}
	if opts.InstitutionName == "" {
		opts.InstitutionName = "Gautam Buddha University"
	}
	return &Answerer{
		gate:        gate,
		embedder:    embedder,
		searcher:    searcher,
		generator:   generator,
		institution: opts.InstitutionName,
		topK:        opts.TopK,
		logger:      logging.OrDefault(opts.Logger),
	}
}

// Answer runs one question through the pipeline
func (a *Answerer) Answer(ctx context.Context, question string) models.Answer {
	question = strings.TrimSpace(question)
	if question == "" {
		return failed(MsgBlankQuestion, models.ErrEmptyInput)
	}

	verdict := a.gate.Check(ctx, question)
	if !verdict.Relevant && verdict.Err != nil {
		// the gate could not decide; report why instead of calling the question off-topic
		var ans models.Answer
		switch {
		case errors.Is(verdict.Err, models.ErrCollectionNotFound):
			ans = notReady(verdict.Err)
		case errors.Is(verdict.Err, models.ErrEmptyResult):
			ans = failed(MsgNoDocuments, verdict.Err)
		default:
			ans = failed(apologyFor(verdict.Err), verdict.Err)
		}
		ans.Verdict = verdict
		return ans
	}
	if !verdict.Relevant {
		a.logger.Info("question rejected", "question", question, "reason", verdict.Reason())
		return models.Answer{
			Status:  models.StatusRejected,
			Text:    fmt.Sprintf(MsgOutOfDomain, a.institution),
			Reason:  verdict.Reason(),
			Verdict: verdict,
		}
	}

	ans := a.retrieveAndGenerate(ctx, question)
	ans.Verdict = verdict
	return ans
}

func (a *Answerer) retrieveAndGenerate(ctx context.Context, question string) models.Answer {
	vec, err := a.embedder.Embed(ctx, question)
	if err != nil {
		a.logger.Warn("failed to embed question", "error", err)
		return failed(MsgApology, err)
	}

	results, err := a.searcher.Search(ctx, vec, a.topK)
	if errors.Is(err, models.ErrCollectionNotFound) {
		return notReady(err)
	}
	if err != nil {
		a.logger.Warn("failed to search index", "error", err)
		return failed(apologyFor(err), err)
	}
	if len(results) == 0 {
		return failed(MsgNoDocuments, models.ErrEmptyResult)
	}

	prompt := BuildPrompt(a.institution, AssembleContext(results), question)

	reply, err := a.generator.Generate(ctx, prompt)
	if err != nil {
		a.logger.Warn("generation failed", "error", err)
		ans := failed(apologyFor(err), err)
		ans.Sources = results
		return ans
	}
	if strings.TrimSpace(reply) == "" {
		ans := failed(MsgApology, models.ErrGenerationUnavailable)
		ans.Sources = results
		return ans
	}

	return models.Answer{
		Status:  models.StatusAnswered,
		Text:    strings.TrimSpace(reply),
		Sources: results,
	}
}

// AssembleContext joins result texts in the order given
func AssembleContext(results []models.SearchResult) string {
	texts := make([]string, 0, len(results))
	for _, r := range results {
		texts = append(texts, r.Text)
	}
	return strings.Join(texts, ContextSeparator)
}

// BuildPrompt renders the generation prompt
func BuildPrompt(institution, contextText, question string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a helpful university assistant for %s. Use the context below to answer the question clearly and concisely.\n\n", institution)
	b.WriteString("Context:\n")
	b.WriteString(contextText)
	b.WriteString("\n\nQuestion:\n")
	b.WriteString(question)
	b.WriteString("\n\nInstructions:\n")
	b.WriteString("- Answer only from the context above.\n")
	b.WriteString("- Use bullet points or numbered lists where they make the answer easier to read.\n")
	b.WriteString("- If the context does not contain the answer, say that the information is not available.\n")
	b.WriteString("\nAnswer:")
	return b.String()
}

func apologyFor(err error) string {
	if errors.Is(err, models.ErrDimensionMismatch) || strings.Contains(err.Error(), schemaDriftSignature) {
		return MsgSchemaDrift
	}
	return MsgApology
}

func failed(text string, err error) models.Answer {
	return models.Answer{
		Status: models.StatusFailed,
		Text:   text,
		Reason: err.Error(),
	}
}

func notReady(err error) models.Answer {
	return models.Answer{
		Status:    models.StatusFailed,
		Text:      MsgNotReady,
		Reason:    err.Error(),
		Retryable: true,
	}
}
