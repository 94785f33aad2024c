package fs

import (
	"errors"
	iofs "io/fs"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	gitignore "github.com/monochromegane/go-gitignore"
	"go.trai.ch/canopy/internal/core/domain"
	"go.trai.ch/canopy/internal/core/ports"
	"go.trai.ch/zerr"
)

// RegexPrefix marks an exclusion pattern as a regular expression.
const RegexPrefix = "regex:"

var _ ports.ExclusionEvaluator = (*Evaluator)(nil)

// Evaluator is a compiled ExclusionRuleSet. It performs no I/O once built.
type Evaluator struct {
	folders map[string]struct{}
	files   map[string]struct{}
	globs   []string
	regexes []*regexp.Regexp
	ignore  gitignore.IgnoreMatcher
}

// NewEvaluator compiles rules for a scan of root.
// The root .gitignore is only read when rules.RespectGitignore is set.
func NewEvaluator(rules domain.ExclusionRuleSet, root string) (*Evaluator, error) {
	e := &Evaluator{
		folders: toSet(rules.FolderNames),
		files:   toSet(rules.FileNames),
	}

	for _, pattern := range rules.Patterns {
		if expr, ok := strings.CutPrefix(pattern, RegexPrefix); ok {
			re, err := regexp.Compile(expr)
			if err != nil {
				return nil, zerr.With(errors.Join(domain.ErrInvalidPattern, err), "pattern", pattern)
			}
			e.regexes = append(e.regexes, re)
			continue
		}
		if _, err := path.Match(pattern, ""); err != nil {
			return nil, zerr.With(errors.Join(domain.ErrInvalidPattern, err), "pattern", pattern)
		}
		e.globs = append(e.globs, pattern)
	}

	if rules.RespectGitignore {
		matcher, err := gitignore.NewGitIgnore(filepath.Join(root, ".gitignore"), root)
		switch {
		case err == nil:
			e.ignore = matcher
		case !errors.Is(err, iofs.ErrNotExist):
			return nil, zerr.With(zerr.Wrap(err, "failed to read .gitignore"), "root", root)
		}
	}

	return e, nil
}

// ShouldExclude reports whether the entry at p is left out of the scan.
// Name sets are checked first, then globs against the name, then regular
// expressions against the relative path, then .gitignore rules.
func (e *Evaluator) ShouldExclude(p domain.Path, isDir bool) bool {
	name := path.Base(p.Rel)

	names := e.files
	if isDir {
		names = e.folders
	}
	if _, ok := names[name]; ok {
		return true
	}

	for _, glob := range e.globs {
		if ok, _ := path.Match(glob, name); ok {
			return true
		}
	}

	for _, re := range e.regexes {
		if re.MatchString(p.Rel) {
			return true
		}
	}

	return e.ignore != nil && e.ignore.Match(p.Abs, isDir)
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
