package extract

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// TopicTerms holds the extracted terms for one topic.
type TopicTerms struct {
	TopicID string
	Terms   []string
}

// WriteResults writes extraction results in the topic-header format:
// a "[Topic <id>]" line followed by the topic's comma-joined terms.
func WriteResults(w io.Writer, results []TopicTerms) error {
	for _, r := range results {
		if _, err := fmt.Fprintf(w, "[Topic %s]\n", r.TopicID); err != nil {
			return err
		}
		if len(r.Terms) == 0 {
			if _, err := fmt.Fprint(w, "No specialized terms extracted for this topic.\n\n"); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(w, "%s\n\n", strings.Join(r.Terms, ",")); err != nil {
			return err
		}
	}
	return nil
}

// WriteResultsFile writes extraction results to a file.
func WriteResultsFile(path string, results []TopicTerms) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if err := WriteResults(bw, results); err != nil {
		return err
	}
	return bw.Flush()
}

// ParseResults reads a results file back into per-topic term lists. Lines
// under a topic header are split on commas; both comma-joined and
// one-term-per-line layouts parse.
func ParseResults(r io.Reader) ([]TopicTerms, error) {
	var results []TopicTerms
	var current *TopicTerms

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			id := strings.TrimSpace(strings.TrimPrefix(line[1:len(line)-1], "Topic"))
			results = append(results, TopicTerms{TopicID: id})
			current = &results[len(results)-1]
			continue
		}
		if current == nil {
			continue
		}
		if strings.HasPrefix(line, "No specialized terms") {
			continue
		}
		for _, field := range strings.Split(line, ",") {
			if term := strings.TrimSpace(field); term != "" {
				current.Terms = append(current.Terms, term)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// ParseResultsFile reads a results file from disk.
func ParseResultsFile(path string) ([]TopicTerms, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return ParseResults(f)
}
