package corpus

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/nao1215/pagerank/internal/graph"
)

// DefaultExtension is the file extension of corpus pages.
const DefaultExtension = ".html"

// Corpus is a directory of HTML pages and the link graph between them.
type Corpus struct {
	// Dir is the directory the corpus was loaded from.
	Dir string

	// Graph is the validated link graph. Self links and links to files
	// outside the corpus have already been removed.
	Graph *graph.Graph

	// Titles maps page names to their <title>, when present.
	Titles map[string]string

	// Skipped lists files matching the page extension that were left out
	// by ignore patterns.
	Skipped []string
}

// Loader reads a corpus directory.
type Loader struct {
	// extension selects the files that are pages.
	extension string

	// ignorePatterns are glob patterns of page names to leave out.
	ignorePatterns []string

	// logger receives debug output about skipped files and dropped links.
	logger *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithExtension sets the file extension of pages (".html" by default).
func WithExtension(ext string) Option {
	return func(l *Loader) {
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		l.extension = ext
	}
}

// WithIgnorePatterns leaves out pages whose name matches any glob pattern
// (for example "draft-*" or "*.old.html"). Links to ignored pages are
// dropped like any other link leaving the corpus.
func WithIgnorePatterns(patterns []string) Option {
	return func(l *Loader) {
		l.ignorePatterns = patterns
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// NewLoader creates a Loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		extension: DefaultExtension,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	return l
}

// Load reads every page directly inside dir (subdirectories are not
// visited), parses its links and builds the link graph.
// An empty corpus yields graph.ErrInvalidGraph.
func Load(dir string, opts ...Option) (*Corpus, error) {
	return NewLoader(opts...).Load(dir)
}

// Load reads the corpus in dir. See the package-level Load.
func (l *Loader) Load(dir string) (*Corpus, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus directory: %w", err)
	}

	c := &Corpus{
		Dir:     dir,
		Titles:  make(map[string]string),
		Skipped: make([]string, 0),
	}
	raw := make(map[string][]string)

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), l.extension) {
			continue
		}
		name := norm.NFC.String(entry.Name())

		if l.ignored(name) {
			l.logger.Debug("page ignored", "page", name)
			c.Skipped = append(c.Skipped, name)
			continue
		}

		result, err := l.parseFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", entry.Name(), err)
		}
		raw[name] = result.Links
		if result.Title != "" {
			c.Titles[name] = result.Title
		}
	}

	links := make(map[string][]string, len(raw))
	for page, targets := range raw {
		kept := make([]string, 0, len(targets))
		for _, target := range targets {
			if _, ok := raw[target]; !ok || target == page {
				l.logger.Debug("link dropped", "page", page, "target", target)
				continue
			}
			kept = append(kept, target)
		}
		links[page] = kept
	}

	g, err := graph.New(links)
	if err != nil {
		return nil, fmt.Errorf("corpus %s: %w", dir, err)
	}
	c.Graph = g
	slices.Sort(c.Skipped)

	l.logger.Debug("corpus loaded",
		"dir", dir,
		"pages", g.Len(),
		"links", g.LinkCount(),
		"skipped", len(c.Skipped),
	)

	return c, nil
}

// parseFile parses a single page.
func (l *Loader) parseFile(name string) (*ParseResult, error) {
	f, err := os.Open(name) //nolint:gosec // Corpus paths are chosen by the user
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Parse(f)
}

// ignored reports whether a page name matches an ignore pattern.
func (l *Loader) ignored(name string) bool {
	for _, pattern := range l.ignorePatterns {
		if matchPattern(pattern, name) {
			return true
		}
	}
	return false
}

// matchPattern checks if a page name matches a glob pattern.
// Patterns use filepath.Match syntax; "*.ext" patterns also match by suffix.
func matchPattern(pattern, name string) bool {
	if strings.HasPrefix(pattern, "*.") && strings.HasSuffix(name, strings.TrimPrefix(pattern, "*")) {
		return true
	}

	matched, err := filepath.Match(pattern, name)
	if err != nil {
		return false
	}
	return matched
}
