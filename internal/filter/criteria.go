package filter

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/amishk599/jobradar/internal/textnorm"
)

// ErrInvalidCriteria is wrapped by every error Compile returns.
var ErrInvalidCriteria = errors.New("invalid filter criteria")

// Strategy selects how keywords are matched against a posting.
type Strategy int

const (
	// StrategySubstring accepts when a normalized keyword occurs anywhere in the
	// normalized title and description.
	StrategySubstring Strategy = iota
	// StrategyExactTokens accepts when every word of a keyword is present as a
	// word of the title or the start of the description, in any order.
	StrategyExactTokens
	// StrategyRegex treats each keyword as a case-insensitive pattern applied
	// to the raw title and description.
	StrategyRegex
)

func (s Strategy) String() string {
	switch s {
	case StrategySubstring:
		return "substring"
	case StrategyExactTokens:
		return "exact"
	case StrategyRegex:
		return "regex"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy maps a config value to a Strategy. Empty means substring.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "substring", "partial":
		return StrategySubstring, nil
	case "exact", "exact_tokens", "tokens":
		return StrategyExactTokens, nil
	case "regex", "regexp":
		return StrategyRegex, nil
	}
	return 0, fmt.Errorf("%w: unknown match strategy %q", ErrInvalidCriteria, s)
}

// StrategyFromFlags resolves the legacy exact_match/use_regex switches.
// Regex wins when both are set.
func StrategyFromFlags(exactMatch, useRegex bool) Strategy {
	switch {
	case useRegex:
		return StrategyRegex
	case exactMatch:
		return StrategyExactTokens
	default:
		return StrategySubstring
	}
}

// Criteria is the declarative rule set for one run.
type Criteria struct {
	Keywords                    []string
	Locations                   []string
	IncludeUnspecifiedLocations bool
	MaxDaysOld                  int // <= 0 disables the age gate
	Strategy                    Strategy
	Categories                  []string
	ExcludedTitles              []string
	RelatedTerms                map[string][]string // keyword -> extra terms; ignored by StrategyRegex
}

// Compiled is the immutable, pre-normalized form of Criteria.
type Compiled struct {
	strategy           Strategy
	keywords           []string
	keywordTokens      [][]string
	patterns           []*regexp.Regexp
	locations          []string
	locationTokens     [][]string
	includeUnspecified bool
	maxDaysOld         int
	categories         []string // case-folded
	excludedTitles     []string // case-folded
}

// Compile normalizes keywords and locations and, for StrategyRegex, compiles
// every keyword. A pattern that does not compile fails the whole call.
func Compile(c Criteria) (*Compiled, error) {
	out := &Compiled{
		strategy:           c.Strategy,
		includeUnspecified: c.IncludeUnspecifiedLocations,
		maxDaysOld:         c.MaxDaysOld,
		categories:         foldAll(c.Categories),
		excludedTitles:     foldAll(c.ExcludedTitles),
	}

	switch c.Strategy {
	case StrategyRegex:
		for _, k := range c.Keywords {
			if k == "" {
				continue
			}
			re, err := regexp.Compile("(?i)" + k)
			if err != nil {
				return nil, fmt.Errorf("%w: keyword pattern %q: %v", ErrInvalidCriteria, k, err)
			}
			out.patterns = append(out.patterns, re)
		}
		out.keywords = normalizeAll(c.Keywords)
	case StrategySubstring, StrategyExactTokens:
		out.keywords = expandRelated(normalizeAll(c.Keywords), c.RelatedTerms)
	default:
		return nil, fmt.Errorf("%w: unknown match strategy %d", ErrInvalidCriteria, int(c.Strategy))
	}

	for _, k := range out.keywords {
		out.keywordTokens = append(out.keywordTokens, textnorm.TokenList(k))
	}

	out.locations = normalizeAll(c.Locations)
	for _, l := range out.locations {
		out.locationTokens = append(out.locationTokens, textnorm.TokenList(l))
	}

	return out, nil
}

// Strategy returns the matching strategy chosen at compile time.
func (c *Compiled) Strategy() Strategy { return c.strategy }

// NormalizedKeywords returns the distinct normalized keywords, related terms included.
func (c *Compiled) NormalizedKeywords() []string { return slices.Clone(c.keywords) }

// NormalizedLocations returns the distinct normalized allowed locations.
func (c *Compiled) NormalizedLocations() []string { return slices.Clone(c.locations) }

// normalizeAll normalizes values, dropping empties and duplicates while
// keeping first-seen order.
func normalizeAll(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		n := textnorm.Normalize(v)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

func foldAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		out = append(out, textnorm.Fold(v))
	}
	return out
}
