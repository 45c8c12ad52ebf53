package source

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/specialistvlad/flowspec/internal/ctxlog"
)

// DefaultMaxIncludeDepth bounds recursive !include expansion.
const DefaultMaxIncludeDepth = 50

// schemePattern recognizes a URI scheme prefix such as "https://".
var schemePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*://`)

// Location identifies where a piece of specification content came from and
// how relative include targets should resolve against it.
type Location struct {
	// Name is the display form used in error messages.
	Name string

	url  *url.URL // non-nil for remote sources
	path string   // absolute path for local files
	dir  string   // base directory for relative targets of local sources
}

// IsLocal reports whether the location is a local file or literal text.
func (loc *Location) IsLocal() bool {
	return loc.url == nil
}

// Resolve returns the location of an include target named from this
// location. Absolute paths and full URLs are used verbatim; otherwise the
// target joins URL-relative when the including location is a URL, and
// relative to the including file's parent directory when it is local.
func (loc *Location) Resolve(target string) (*Location, error) {
	if schemePattern.MatchString(target) {
		return locationFor(target)
	}
	if loc.url != nil {
		ref, err := url.Parse(target)
		if err != nil {
			return nil, fmt.Errorf("invalid include target %q: %w", target, err)
		}
		joined := loc.url.ResolveReference(ref)
		return &Location{Name: joined.String(), url: joined}, nil
	}
	path := target
	if !filepath.IsAbs(path) {
		path = filepath.Join(loc.dir, path)
	}
	return &Location{Name: path, path: path, dir: filepath.Dir(path)}, nil
}

// locationFor builds a Location from a URI string.
func locationFor(src string) (*Location, error) {
	if schemePattern.MatchString(src) {
		u, err := url.Parse(src)
		if err != nil {
			return nil, fmt.Errorf("invalid source URI %q: %w", src, err)
		}
		if strings.EqualFold(u.Scheme, "file") {
			return localLocation(u.Path)
		}
		return &Location{Name: src, url: u}, nil
	}
	return localLocation(src)
}

// localLocation builds a Location for a local file path.
func localLocation(path string) (*Location, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %q: %w", path, err)
	}
	return &Location{Name: path, path: abs, dir: filepath.Dir(abs)}, nil
}

// IsURI reports whether src should be treated as a URI rather than literal
// YAML content: it must contain no newline and either carry a URI scheme or
// name an existing local file.
func IsURI(src string) bool {
	if strings.ContainsAny(src, "\n\r") {
		return false
	}
	if schemePattern.MatchString(src) {
		return true
	}
	if _, err := os.Stat(src); err == nil {
		return true
	}
	return false
}

// Loader turns a source string into a substituted YAML node tree.
// The zero value is ready to use.
type Loader struct {
	// MaxIncludeDepth bounds recursive include expansion; it defaults to
	// DefaultMaxIncludeDepth when zero or negative.
	MaxIncludeDepth int
}

// NewLoader creates a Loader with default settings.
func NewLoader() *Loader {
	return &Loader{MaxIncludeDepth: DefaultMaxIncludeDepth}
}

// Load resolves src, which is either literal YAML text or a URI, and
// returns the fully substituted and expanded document node together with
// the source location. Every failure is reported as a *LoadError.
func (l *Loader) Load(ctx context.Context, src string) (*yaml.Node, *Location, error) {
	logger := ctxlog.FromContext(ctx)

	var (
		loc     *Location
		content []byte
	)
	if IsURI(src) {
		var err error
		loc, err = locationFor(src)
		if err != nil {
			return nil, nil, &LoadError{Source: src, Line: -1, Column: -1, Msg: err.Error(), Err: err}
		}
		if loc.IsLocal() {
			bootstrapEnv(loc.dir)
		} else {
			bootstrapEnv("")
		}
		logger.Debug("Loading specification source.", "source", loc.Name)
		content, err = l.fetchLocation(ctx, loc)
		if err != nil {
			return nil, nil, &LoadError{Source: loc.Name, Line: -1, Column: -1, Msg: "cannot retrieve source: " + err.Error(), Err: err}
		}
	} else {
		wd, _ := os.Getwd()
		loc = &Location{Name: "<literal>", dir: wd}
		bootstrapEnv("")
		logger.Debug("Loading literal specification content.", "bytes", len(src))
		content = []byte(src)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, nil, newParseError(loc.Name, err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil, &LoadError{Source: loc.Name, Line: -1, Column: -1, Msg: "document is empty"}
	}

	visited := map[string]bool{loc.Name: true}
	if err := l.expand(ctx, &doc, loc, 0, visited); err != nil {
		return nil, nil, err
	}
	logger.Debug("Source expanded.", "source", loc.Name)
	return &doc, loc, nil
}

// fetchLocation retrieves raw content for a resolved location.
func (l *Loader) fetchLocation(ctx context.Context, loc *Location) ([]byte, error) {
	if loc.url != nil {
		f, ok := fetcherFor(loc.url.Scheme)
		if !ok {
			return nil, fmt.Errorf("unsupported URI scheme %q", loc.url.Scheme)
		}
		return f.Fetch(ctx, loc.url)
	}
	return os.ReadFile(loc.path)
}

// maxDepth returns the effective include depth bound.
func (l *Loader) maxDepth() int {
	if l.MaxIncludeDepth > 0 {
		return l.MaxIncludeDepth
	}
	return DefaultMaxIncludeDepth
}
