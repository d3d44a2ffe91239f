package adapter

import (
	"log"
	"regexp"
	"strings"

	"github.com/ctagard/chrome-dap-bridge/internal/rdp"
)

// skipFileState decides which source paths are skipped while stepping.
// Explicit per-path statuses override the pattern list.
type skipFileState struct {
	patterns []*regexp.Regexp
	statuses map[string]bool
}

// newSkipFileState compiles the skipFiles globs and the verbatim regexp
// entries. Glob entries starting with '!' are not supported and are ignored
// with a warning.
func newSkipFileState(globs, regexps []string) *skipFileState {
	s := &skipFileState{statuses: make(map[string]bool)}

	for _, glob := range globs {
		if strings.HasPrefix(glob, "!") {
			log.Printf("SkipFiles: ignoring unsupported exclusion pattern: %s", glob)
			continue
		}
		re, err := regexp.Compile(globToRegexp(glob))
		if err != nil {
			log.Printf("SkipFiles: cannot compile pattern %q: %v", glob, err)
			continue
		}
		s.patterns = append(s.patterns, re)
	}

	for _, expr := range regexps {
		re, err := regexp.Compile(expr)
		if err != nil {
			log.Printf("SkipFiles: cannot compile regexp %q: %v", expr, err)
			continue
		}
		s.patterns = append(s.patterns, re)
	}

	return s
}

// shouldSkip classifies a path: an explicit status wins, otherwise the
// pattern list decides, otherwise nil (unclassified).
func (s *skipFileState) shouldSkip(path string) *bool {
	if status, ok := s.statuses[path]; ok {
		return &status
	}
	for _, re := range s.patterns {
		if re.MatchString(path) {
			t := true
			return &t
		}
	}
	return nil
}

// setStatus records an explicit per-path override.
func (s *skipFileState) setStatus(path string, skip bool) {
	s.statuses[path] = skip
}

// addPatternForPath appends a pattern matching exactly this path, so scripts
// loaded later inherit the skip decision.
func (s *skipFileState) addPatternForPath(path string) {
	re, err := regexp.Compile(regexp.QuoteMeta(path) + "$")
	if err != nil {
		return
	}
	s.patterns = append(s.patterns, re)
}

// removePatternsMatching drops every pattern that matches the path.
func (s *skipFileState) removePatternsMatching(path string) {
	kept := s.patterns[:0]
	for _, re := range s.patterns {
		if !re.MatchString(path) {
			kept = append(kept, re)
		}
	}
	s.patterns = kept
}

// patternStrings returns the current pattern list for
// Debugger.setBlackboxPatterns.
func (s *skipFileState) patternStrings() []string {
	out := make([]string, len(s.patterns))
	for i, re := range s.patterns {
		out[i] = re.String()
	}
	return out
}

// blackboxedRanges computes the positions submitted via
// Debugger.setBlackboxedRanges for one script. Authored-source details are
// walked in source order; a boundary is emitted whenever the skip
// classification flips. parentSkipped is the classification of the
// generated script itself.
func blackboxedRanges(parentSkipped bool, details []SourcePathDetails, classify func(string) *bool) []rdp.ScriptPosition {
	var positions []rdp.ScriptPosition

	inLib := parentSkipped
	if parentSkipped {
		positions = append(positions, rdp.ScriptPosition{LineNumber: 0, ColumnNumber: 0})
	}

	for _, d := range details {
		skipped := false
		if st := classify(d.InferredPath); st != nil {
			skipped = *st
		}
		if skipped != inLib {
			positions = append(positions, rdp.ScriptPosition{
				LineNumber:   d.StartPosition.Line,
				ColumnNumber: d.StartPosition.Column,
			})
			inLib = skipped
		}
	}

	return positions
}

// globToRegexp translates a skipFiles glob into a regular expression
// anchored at both ends. '**' crosses path separators, '*' does not,
// '?' matches one character.
func globToRegexp(glob string) string {
	var sb strings.Builder
	sb.WriteString("^")
	for i := 0; i < len(glob); i++ {
		c := glob[i]
		switch c {
		case '*':
			if i+1 < len(glob) && glob[i+1] == '*' {
				sb.WriteString(".*")
				i++
				// A '**/' segment also matches zero directories.
				if i+1 < len(glob) && glob[i+1] == '/' {
					sb.WriteString("/?")
					i++
				}
			} else {
				sb.WriteString(`[^/\\]*`)
			}
		case '?':
			sb.WriteString(".")
		case '.', '(', ')', '{', '}', '+', '^', '$', '|', '[', ']', '\\':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteString("$")
	return sb.String()
}
