// Package push drives package pushes: it resolves keys and sources, uploads
// the package and its symbols, classifies each answer and applies the
// continue-on-error policy.
package push

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ThomasSmeets/NuGet.Client/internal/model"
	"github.com/ThomasSmeets/NuGet.Client/internal/policy"
)

// DefaultTimeout bounds each upload when the request sets none.
const DefaultTimeout = 5 * time.Minute

// Request is one push invocation as given on the command line.
type Request struct {
	// PackagePath is a file path or a glob such as out/*.nupkg.
	PackagePath string
	// APIKey is the explicit key option; PositionalAPIKey the optional
	// second argument.
	APIKey           string
	PositionalAPIKey string

	Source       string
	SymbolSource string
	SymbolAPIKey string

	Timeout           time.Duration
	DisableBuffering  bool
	NoSymbols         bool
	NoServiceEndpoint bool

	Tolerated policy.ToleratedErrors
}

// ResolveAPIKey applies key precedence: the explicit option, then a
// non-empty positional value. An empty result means no key is sent.
func ResolveAPIKey(explicit, positional string) string {
	if explicit != "" {
		return explicit
	}
	return positional
}

func (r Request) timeout() time.Duration {
	if r.Timeout <= 0 {
		return DefaultTimeout
	}
	return r.Timeout
}

// ExpandArtifacts resolves a package path into the packages to push. An
// existing file is taken as is, even if its name has glob characters.
// Globs skip symbol packages, which are pushed alongside their package.
func ExpandArtifacts(pattern string) ([]model.Artifact, error) {
	if info, err := os.Stat(pattern); err == nil && !info.IsDir() {
		return []model.Artifact{{Path: pattern}}, nil
	}
	if !strings.ContainsAny(pattern, "*?[") {
		return nil, fmt.Errorf("File does not exist (%s).", pattern)
	}

	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid package path %q: %w", pattern, err)
	}
	sort.Strings(matches)

	var artifacts []model.Artifact
	for _, m := range matches {
		a := model.Artifact{Path: m}
		if a.IsSymbolPackage() {
			continue
		}
		artifacts = append(artifacts, a)
	}
	if len(artifacts) == 0 {
		return nil, fmt.Errorf("File does not exist (%s).", pattern)
	}
	return artifacts, nil
}
