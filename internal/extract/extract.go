// Package extract pulls specialized vocabulary out of textbook topics.
// Topic text is linearized from the XML tree and sent to an LLM that is
// instructed to list only terms literally present in the text; responses
// are filtered against a common-word exclusion list.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackzampolin/tome/internal/llmcall"
	"github.com/jackzampolin/tome/internal/providers"
	"github.com/jackzampolin/tome/internal/wordcache"
	"github.com/jackzampolin/tome/internal/xmldoc"
)

// Options tunes an extraction run.
type Options struct {
	// Subject names the domain in the prompt (default "chemistry").
	Subject string
	// Grade names the audience in the prompt (default "grade 9").
	Grade string
	// MaxRetries per topic (default 3).
	MaxRetries int
	// Timeout per request (default 120s).
	Timeout time.Duration
	// Delay between topics.
	Delay time.Duration
	// BookID tags LLM call records and the word cache.
	BookID string
}

func (o *Options) fill() {
	if o.Subject == "" {
		o.Subject = "chemistry"
	}
	if o.Grade == "" {
		o.Grade = "grade 9"
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	if o.Timeout <= 0 {
		o.Timeout = 120 * time.Second
	}
}

// Extractor runs term extraction over a book's topics.
type Extractor struct {
	client   providers.LLMClient
	recorder *llmcall.Recorder
	cache    *wordcache.Cache
	logger   *slog.Logger
}

// NewExtractor creates an Extractor. recorder and cache may be nil.
func NewExtractor(client providers.LLMClient, recorder *llmcall.Recorder, cache *wordcache.Cache, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{client: client, recorder: recorder, cache: cache, logger: logger}
}

// Topic is one topic's id and linearized text.
type Topic struct {
	ID   string
	Text string
}

// LoadTopics loads the XML file and collects every topic's text. Recovery
// parsing is always on here: a truncated book still yields the topics that
// survived.
func LoadTopics(path string) ([]Topic, error) {
	doc, err := xmldoc.LoadRecover(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	var topics []Topic
	for _, el := range doc.Root.Iter("topic") {
		id := el.Attr("id", "")
		text := el.CollectText()
		if id == "" || text == "" {
			continue
		}
		topics = append(topics, Topic{ID: id, Text: text})
	}
	return topics, nil
}

// Run extracts terms for every topic in the file and returns them in
// document order. Topic failures after all retries yield an empty term
// list, not an aborted run.
func (e *Extractor) Run(ctx context.Context, path string, opts Options) ([]TopicTerms, error) {
	opts.fill()

	topics, err := LoadTopics(path)
	if err != nil {
		return nil, err
	}
	if len(topics) == 0 {
		return nil, fmt.Errorf("%s: no topics with text content", path)
	}

	results := make([]TopicTerms, 0, len(topics))
	for i, topic := range topics {
		e.logger.Info("extracting terms",
			"topic", topic.ID, "progress", fmt.Sprintf("%d/%d", i+1, len(topics)))

		terms := e.extractTopic(ctx, topic, opts)
		results = append(results, TopicTerms{TopicID: topic.ID, Terms: terms})
		e.logger.Info("topic done", "topic", topic.ID, "terms", len(terms))

		if opts.Delay > 0 && i < len(topics)-1 {
			select {
			case <-time.After(opts.Delay):
			case <-ctx.Done():
				return results, ctx.Err()
			}
		}
	}
	return results, nil
}

// extractTopic calls the model with retries and a linear backoff of
// 5s * attempt between failures.
func (e *Extractor) extractTopic(ctx context.Context, topic Topic, opts Options) []string {
	prompt := termPrompt(opts.Subject, opts.Grade, topic.Text)
	req := &providers.ChatRequest{
		Messages: []providers.Message{
			{Role: "system", Content: termSystemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: 0,
		MaxTokens:   2000,
		Timeout:     opts.Timeout,
	}

	for attempt := 1; attempt <= opts.MaxRetries; attempt++ {
		result, err := e.client.Chat(ctx, req)
		if result != nil && e.recorder != nil {
			e.recorder.Record(result, llmcall.RecordOptions{
				BookID:  opts.BookID,
				TopicID: topic.ID,
				Stage:   "extract",
				Prompt:  prompt,
			})
		}
		if err == nil && result != nil && result.Success {
			terms := ParseTermList(result.Content)
			e.cacheTerms(ctx, opts.BookID, topic.ID, terms)
			return terms
		}

		e.logger.Warn("extraction attempt failed",
			"topic", topic.ID, "attempt", attempt, "error", err)
		if attempt == opts.MaxRetries {
			break
		}
		select {
		case <-time.After(time.Duration(attempt) * 5 * time.Second):
		case <-ctx.Done():
			return nil
		}
	}
	return nil
}

func (e *Extractor) cacheTerms(ctx context.Context, bookID, topicID string, terms []string) {
	if e.cache == nil || bookID == "" {
		return
	}
	for _, term := range terms {
		if err := e.cache.Put(ctx, bookID, term, topicID); err != nil {
			e.logger.Warn("word cache write failed", "word", term, "error", err)
			return
		}
	}
}

const termSystemPrompt = "You are a highly precise scientific content extraction assistant. " +
	"Your primary function is to identify and list terms that are literally present in the provided text, " +
	"following all constraints meticulously. You do not infer, add, or invent information."

// termPrompt builds the extraction prompt. The model is asked for a
// comma-separated list of terms that appear verbatim in the topic text.
func termPrompt(subject, grade, topicText string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `ANALYSIS TASK:
Your sole task is to identify and extract specialized educational terminology relevant to %[1]s that is LITERALLY PRESENT in the provided TOPIC TEXT.
This content is from a %[1]s textbook, %[2]s. The goal is to help students by providing meanings of hard words from the content: terms they might click on for a definition in an interactive textbook. Do not make up terms, do not infer, do not paraphrase. Only extract terms that are explicitly written in the text.

TOPIC TEXT:
---
%[3]s
---

STRICT REQUIREMENTS FOR EXTRACTION:
1. EXTRACT ONLY TERMS LITERALLY PRESENT: never invent, infer, or paraphrase. If a term is conceptually related but not written verbatim, do not include it.
2. TYPES OF TERMS TO EXTRACT (if literally present): key %[1]s concepts and principles, specific substance names, element names used in a specific context, established scientific phrases and named laws or effects.
3. PRIORITIZE nouns and noun phrases. Include verbs only when they name a specific process and appear literally.
4. EXCLUDE: extremely common English words, general academic or instructional vocabulary, numbers, standalone acronyms, and chemical formulas (extract the compound name instead, only if the name itself appears in the text).

OUTPUT FORMAT:
Return ONLY a comma-separated list of the extracted words and phrases. Each term distinct, all found literally in the TOPIC TEXT.
Example: "stoichiometry,chemical reaction,mole concept,methane,covalent bond"

Now extract the specialized %[1]s terms that are LITERALLY PRESENT in the TOPIC TEXT above.`,
		subject, grade, topicText)
	return b.String()
}
