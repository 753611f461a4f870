package filestore

import (
	"bufio"
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/djklmr2025/cosmos-den/internal/fault"
	"github.com/djklmr2025/cosmos-den/internal/policy"
)

type LineMatch struct {
	Line int    `json:"line"`
	Text string `json:"text"`
}

type SearchHit struct {
	Path    string      `json:"path"`
	Type    string      `json:"type"`
	Matches []LineMatch `json:"matches,omitempty"`
}

type SearchResult struct {
	Pattern   string      `json:"pattern"`
	InContent bool        `json:"in_content"`
	Results   []SearchHit `json:"results"`
	Count     int         `json:"count"`
	Truncated bool        `json:"truncated,omitempty"`
}

type SearchOptions struct {
	// Dir limits the search to a subtree; empty means the workspace root.
	Dir       string
	InContent bool
}

// Search finds entries by name glob or, with InContent, files whose lines
// match pattern as a case-insensitive regular expression. Content search
// only opens files whose extension is allowed and reports at most
// MaxMatchesPerFile lines per file.
func (s *Store) Search(pattern string, opts SearchOptions) (SearchResult, error) {
	const op = "search"

	if pattern == "" {
		return SearchResult{}, fault.New(fault.KindInvalidRequest, op, "", "empty pattern")
	}
	target, err := s.resolve(op, opts.Dir)
	if err != nil {
		return SearchResult{}, err
	}
	info, err := s.statTarget(op, opts.Dir, target)
	if err != nil {
		return SearchResult{}, err
	}
	if !info.IsDir() {
		return SearchResult{}, notDir(op, opts.Dir)
	}

	var match func(abs string, d fs.DirEntry) (SearchHit, bool)
	if opts.InContent {
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			return SearchResult{}, &fault.Error{Kind: fault.KindInvalidRequest, Op: op, Detail: "invalid regular expression", Err: err}
		}
		match = func(abs string, d fs.DirEntry) (SearchHit, bool) {
			return s.matchContent(re, abs, d)
		}
	} else {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return SearchResult{}, &fault.Error{Kind: fault.KindInvalidRequest, Op: op, Detail: "invalid glob pattern", Err: err}
		}
		byPath := strings.Contains(pattern, "/")
		match = func(abs string, d fs.DirEntry) (SearchHit, bool) {
			subject := d.Name()
			if byPath {
				subject = s.guard.Rel(abs)
			}
			if ok, _ := filepath.Match(pattern, subject); !ok {
				return SearchHit{}, false
			}
			kind := TypeFile
			if d.IsDir() {
				kind = TypeDirectory
			}
			return SearchHit{Path: s.guard.Rel(abs), Type: kind}, true
		}
	}

	result := SearchResult{Pattern: pattern, InContent: opts.InContent, Results: []SearchHit{}}
	err = filepath.WalkDir(target.Abs, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if p == target.Abs {
				return walkErr
			}
			return nil
		}
		if p == target.Abs {
			return nil
		}
		if skip(d.Name(), false) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if hit, ok := match(p, d); ok {
			if len(result.Results) == MaxSearchResults {
				result.Truncated = true
				return filepath.SkipAll
			}
			result.Results = append(result.Results, hit)
		}
		return nil
	})
	if err != nil {
		return SearchResult{}, s.classify(op, opts.Dir, err)
	}
	result.Count = len(result.Results)
	return result, nil
}

func (s *Store) matchContent(re *regexp.Regexp, abs string, d fs.DirEntry) (SearchHit, bool) {
	if !d.Type().IsRegular() {
		return SearchHit{}, false
	}
	ext := policy.Suffix(d.Name())
	if ext == "" || !s.exts.Allowed(ext) {
		return SearchHit{}, false
	}
	info, err := d.Info()
	if err != nil || info.Size() > MaxReadBytes {
		return SearchHit{}, false
	}
	data, err := os.ReadFile(abs)
	if err != nil || !utf8.Valid(data) {
		return SearchHit{}, false
	}

	var matches []LineMatch
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), MaxReadBytes)
	line := 0
	for scanner.Scan() && len(matches) < MaxMatchesPerFile {
		line++
		text := scanner.Text()
		if re.MatchString(text) {
			matches = append(matches, LineMatch{Line: line, Text: strings.TrimSpace(text)})
		}
	}
	if len(matches) == 0 {
		return SearchHit{}, false
	}
	return SearchHit{Path: s.guard.Rel(abs), Type: TypeFile, Matches: matches}, true
}
