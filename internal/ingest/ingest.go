package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/jackzampolin/tome/internal/flatten"
	"github.com/jackzampolin/tome/internal/types"
	"github.com/jackzampolin/tome/internal/xmldoc"
)

// Ingester walks an XML document and persists its hierarchy through a Store.
// Individual section failures are recorded and skipped; only structural
// errors (unreadable file, book resolution) abort a run.
type Ingester struct {
	store         Store
	resolver      *Resolver
	logger        *slog.Logger
	defaultPolicy types.ConflictPolicy
}

// NewIngester creates an Ingester. defaultPolicy applies to section types
// without a per-type policy; empty means append.
func NewIngester(store Store, logger *slog.Logger, defaultPolicy types.ConflictPolicy) *Ingester {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingester{
		store:         store,
		resolver:      NewResolver(store, logger),
		logger:        logger,
		defaultPolicy: defaultPolicy,
	}
}

// Options tunes a single ingest run.
type Options struct {
	// ChapterOrder positions a single-chapter file within its book.
	ChapterOrder int
	// Conflict overrides all per-type conflict policies when set.
	Conflict types.ConflictPolicy
	// Recover enables partial-document recovery for malformed XML.
	Recover bool
}

// Result summarizes an ingest run.
type Result struct {
	BookID    string                `json:"book_id"`
	RunID     string                `json:"run_id"`
	Recovered bool                  `json:"recovered,omitempty"`
	Stats     types.RunStats        `json:"stats"`
	Sections  []types.SectionResult `json:"sections"`
}

// Run ingests the XML file at path into the book described by meta. Book
// files process every chapter child; anything else is treated as a single
// chapter.
func (ing *Ingester) Run(ctx context.Context, path string, meta BookMeta, opts Options) (*Result, error) {
	started := time.Now().UTC()

	var doc *xmldoc.Document
	var err error
	if opts.Recover {
		doc, err = xmldoc.LoadRecover(path)
	} else {
		doc, err = xmldoc.Load(path)
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	if doc.Recovered {
		ing.logger.Warn("recovered partial document", "path", path)
	}

	bookID, err := ing.resolver.ResolveBook(ctx, meta)
	if err != nil {
		return nil, err
	}

	result := &Result{
		BookID:    bookID,
		RunID:     uuid.New().String(),
		Recovered: doc.Recovered,
	}

	chapterOrder := opts.ChapterOrder
	if chapterOrder <= 0 {
		chapterOrder = 1
	}

	switch xmldoc.DetectRoot(doc.Root) {
	case xmldoc.RootBook:
		order := 0
		for _, ch := range doc.Root.Iter("chapter") {
			if ch == doc.Root {
				continue
			}
			order++
			ing.processChapter(ctx, bookID, ch, order, opts, result)
		}
	case xmldoc.RootSections:
		return nil, fmt.Errorf("%s is a sections batch file, use sections add", path)
	default:
		ing.processChapter(ctx, bookID, doc.Root, chapterOrder, opts, result)
	}

	ing.recordRun(ctx, path, result, opts, started)

	ing.logger.Info("ingest complete",
		"book_id", bookID,
		"chapters", result.Stats.Chapters,
		"topics", result.Stats.Topics,
		"created", result.Stats.SectionsCreated,
		"replaced", result.Stats.SectionsReplaced,
		"skipped", result.Stats.SectionsSkipped,
		"failed", result.Stats.SectionsFailed)
	return result, nil
}

// processChapter resolves the chapter's identity and walks its topics.
func (ing *Ingester) processChapter(ctx context.Context, bookID string, ch *xmldoc.Element, order int, opts Options, result *Result) {
	numberDisplay := ch.Attr("id", "")
	if numberDisplay == "" {
		numberDisplay = "ch_" + strconv.Itoa(order)
	}
	title := ch.Attr("title", "")
	if title == "" {
		title = "Chapter " + strconv.Itoa(order)
	}

	chapterID, err := ing.resolver.ResolveChapter(ctx, bookID, numberDisplay, title, order)
	if err != nil {
		ing.logger.Error("chapter failed", "number", numberDisplay, "error", err)
		result.Stats.SectionsFailed++
		result.Sections = append(result.Sections, types.SectionResult{
			SectionXMLID: numberDisplay,
			Outcome:      types.OutcomeFailed,
			Reason:       err.Error(),
		})
		return
	}
	result.Stats.Chapters++

	// Topic-level containers in tag groups, document order within each group.
	topics := ch.ChildrenByTag("topic")
	topics = append(topics, ch.ChildrenByTag("section")...)
	topics = append(topics, ch.ChildrenByTag("unit")...)

	if len(topics) == 0 {
		// Flat chapter: a single implicit topic holds the chapter's content.
		topicTitle := ch.Attr("title", "Main Content")
		topicID, err := ing.resolver.ResolveTopic(ctx, chapterID, "main", topicTitle, 1)
		if err != nil {
			ing.logger.Error("topic failed", "chapter_id", chapterID, "error", err)
			result.Stats.SectionsFailed++
			return
		}
		result.Stats.Topics++
		ing.processSections(ctx, topicID, ch, opts, result)
		return
	}

	for idx, topicEl := range topics {
		topicOrder := idx + 1
		topicXMLID := topicEl.Attr("id", "")
		if topicXMLID == "" {
			topicXMLID = "topic_" + strconv.Itoa(topicOrder)
		}
		topicTitle := topicEl.Attr("title", "")
		if topicTitle == "" {
			topicTitle = "Topic " + strconv.Itoa(topicOrder)
		}

		topicID, err := ing.resolver.ResolveTopic(ctx, chapterID, topicXMLID, topicTitle, topicOrder)
		if err != nil {
			ing.logger.Error("topic failed", "xml_id", topicXMLID, "error", err)
			result.Stats.SectionsFailed++
			continue
		}
		result.Stats.Topics++
		ing.processSections(ctx, topicID, topicEl, opts, result)
	}
}

// SectionUnit is one section-shaped unit of work within a topic: the
// element to flatten plus the resolved type, title, and position.
type SectionUnit struct {
	Element *xmldoc.Element
	Type    string
	Title   string
	Order   int
}

// VirtualSection presents a topic's loose content as a single section when
// the topic has no explicit <section> children. The content type is sniffed
// from the child tags unless the element declares one.
func VirtualSection(parent *xmldoc.Element) SectionUnit {
	sectionType := parent.Attr("type", "")
	if sectionType == "" {
		sectionType = string(flatten.DetectSectionType(parent))
	}
	title := parent.Attr("title", "")
	if title == "" {
		title = sectionType + " Section"
	}
	return SectionUnit{Element: parent, Type: sectionType, Title: title, Order: 1}
}

// sectionUnits lists the parent's explicit sections in document order, or a
// single virtual section when it has none.
func sectionUnits(parent *xmldoc.Element) []SectionUnit {
	sections := parent.ChildrenByTag("section")
	if len(sections) == 0 {
		return []SectionUnit{VirtualSection(parent)}
	}
	units := make([]SectionUnit, 0, len(sections))
	for idx, sec := range sections {
		sectionType := sec.Attr("type", "UNKNOWN")
		title := sec.Attr("title", "")
		if title == "" {
			title = "Section " + sectionType
		}
		units = append(units, SectionUnit{Element: sec, Type: sectionType, Title: title, Order: idx + 1})
	}
	return units
}

// processSections upserts each of the topic's section units.
func (ing *Ingester) processSections(ctx context.Context, topicID string, parent *xmldoc.Element, opts Options, result *Result) {
	for _, unit := range sectionUnits(parent) {
		ing.ingestSection(ctx, topicID, unit.Element, unit.Type, unit.Title, unit.Order, opts, result)
	}
}

// ingestSection upserts one section and records its outcome. Failures are
// logged and recorded without aborting the run.
func (ing *Ingester) ingestSection(ctx context.Context, topicID string, el *xmldoc.Element, sectionType, title string, order int, opts Options, result *Result) {
	res, err := ing.upsertSection(ctx, topicID, el, sectionType, title, order, opts.Conflict, &result.Stats)
	if err != nil {
		ing.logger.Error("section failed",
			"topic_id", topicID, "type", sectionType, "error", err)
		res.Outcome = types.OutcomeFailed
		res.Reason = err.Error()
		result.Stats.Record(types.OutcomeFailed)
	}
	result.Sections = append(result.Sections, res)
}

// recordRun persists an IngestRun document. Bookkeeping failures are logged,
// not returned; the content is already stored.
func (ing *Ingester) recordRun(ctx context.Context, path string, result *Result, opts Options, started time.Time) {
	status := "completed"
	if result.Stats.SectionsFailed > 0 {
		status = "completed_with_errors"
	}
	behavior := string(opts.Conflict)
	if behavior == "" {
		behavior = string(ing.defaultPolicy)
	}
	if behavior == "" {
		behavior = string(types.ConflictAppend)
	}

	doc := map[string]any{
		"run_id":            result.RunID,
		"source_file":       path,
		"book_id":           result.BookID,
		"conflict_behavior": behavior,
		"recovered":         result.Recovered,
		"chapters":          result.Stats.Chapters,
		"topics":            result.Stats.Topics,
		"sections_created":  result.Stats.SectionsCreated,
		"sections_replaced": result.Stats.SectionsReplaced,
		"sections_skipped":  result.Stats.SectionsSkipped,
		"sections_failed":   result.Stats.SectionsFailed,
		"elements":          result.Stats.Elements,
		"list_items":        result.Stats.ListItems,
		"started_at":        started.Format(time.RFC3339),
		"finished_at":       time.Now().UTC().Format(time.RFC3339),
		"status":            status,
	}
	if err := ing.store.RecordRun(ctx, doc); err != nil {
		ing.logger.Error("recording ingest run failed", "run_id", result.RunID, "error", err)
	}
}
