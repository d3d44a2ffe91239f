package adapter

import (
	"sort"
	"strings"
)

// Script is one script the runtime has parsed.
type Script struct {
	ScriptID     string
	URL          string
	SourceMapURL string
}

// SourceContainer backs one sourceReference served to the IDE. Contents is
// set only for sources inlined in a source map; otherwise the source is
// fetched from the runtime via the script id.
type SourceContainer struct {
	ScriptID   string
	Contents   string
	MappedPath string
}

// scriptRegistry indexes parsed scripts by runtime id and by URL. Scripts
// live from scriptParsed until executionContextsCleared or disconnect.
type scriptRegistry struct {
	byID  map[string]*Script
	byURL map[string]*Script
}

func newScriptRegistry() *scriptRegistry {
	return &scriptRegistry{
		byID:  make(map[string]*Script),
		byURL: make(map[string]*Script),
	}
}

// add registers a script, synthesizing a VM<id> URL for anonymous scripts
// and normalizing drive-letter casing. Returns the stored script.
func (r *scriptRegistry) add(scriptID, url, sourceMapURL string) *Script {
	url = fixDriveLetter(url)
	if url == "" {
		url = syntheticURL(scriptID)
	}

	s := &Script{ScriptID: scriptID, URL: url, SourceMapURL: sourceMapURL}
	r.byID[scriptID] = s
	r.byURL[url] = s
	return s
}

func (r *scriptRegistry) byScriptID(id string) (*Script, bool) {
	s, ok := r.byID[id]
	return s, ok
}

func (r *scriptRegistry) byScriptURL(url string) (*Script, bool) {
	s, ok := r.byURL[fixDriveLetter(url)]
	return s, ok
}

// all returns every known script ordered by URL.
func (r *scriptRegistry) all() []*Script {
	scripts := make([]*Script, 0, len(r.byID))
	for _, s := range r.byID {
		scripts = append(scripts, s)
	}
	sort.Slice(scripts, func(i, j int) bool { return scripts[i].URL < scripts[j].URL })
	return scripts
}

// clear drops every script, used on executionContextsCleared.
func (r *scriptRegistry) clear() {
	r.byID = make(map[string]*Script)
	r.byURL = make(map[string]*Script)
}

// syntheticURL names an anonymous eval script after its runtime id.
func syntheticURL(scriptID string) string {
	return "VM" + scriptID
}

// isSyntheticURL reports whether a URL names an anonymous eval script.
func isSyntheticURL(url string) bool {
	return strings.HasPrefix(url, "VM")
}

// fixDriveLetter upper-cases a Windows drive letter so that URL-keyed
// lookups are insensitive to the casing the runtime happens to report.
func fixDriveLetter(path string) string {
	if len(path) >= 2 && path[1] == ':' && path[0] >= 'a' && path[0] <= 'z' {
		return strings.ToUpper(path[:1]) + path[1:]
	}
	const fileScheme = "file:///"
	if strings.HasPrefix(path, fileScheme) && len(path) > len(fileScheme)+1 && path[len(fileScheme)+1] == ':' {
		c := path[len(fileScheme)]
		if c >= 'a' && c <= 'z' {
			return fileScheme + strings.ToUpper(string(c)) + path[len(fileScheme)+1:]
		}
	}
	return path
}
