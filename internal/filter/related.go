package filter

import "github.com/amishk599/jobradar/internal/textnorm"

// DefaultRelatedTerms is a starter expansion table for tech and internship roles.
// It is only applied when a config asks for it.
var DefaultRelatedTerms = map[string][]string{
	"developer":  {"engineer", "programmer"},
	"engineer":   {"developer"},
	"programmer": {"developer", "engineer"},
	"intern":     {"internship", "stagiar"},
	"internship": {"intern", "stagiu"},
	"frontend":   {"front-end", "front end"},
	"backend":    {"back-end", "back end"},
	"full stack": {"fullstack", "full-stack"},
}

// expandRelated appends the related terms of each keyword after the keywords
// themselves. Table keys and terms are normalized before use.
func expandRelated(keywords []string, related map[string][]string) []string {
	if len(related) == 0 {
		return keywords
	}

	table := make(map[string][]string, len(related))
	for k, terms := range related {
		nk := textnorm.Normalize(k)
		table[nk] = append(table[nk], terms...)
	}

	seen := make(map[string]struct{}, len(keywords))
	for _, k := range keywords {
		seen[k] = struct{}{}
	}

	out := keywords
	for _, k := range keywords {
		for _, term := range table[k] {
			n := textnorm.Normalize(term)
			if n == "" {
				continue
			}
			if _, dup := seen[n]; dup {
				continue
			}
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	return out
}
