// Package dedup collapses postings that share a URL.
package dedup

import "github.com/amishk599/jobradar/internal/model"

// Deduplicate keeps one posting per distinct non-empty URL. The surviving value
// is the last one seen for that URL, placed where the URL first appeared, so
// later sources overwrite earlier ones without reshuffling the list.
// Postings with an empty URL are always kept.
func Deduplicate(jobs []model.Job) []model.Job {
	out := make([]model.Job, 0, len(jobs))
	slot := make(map[string]int, len(jobs))

	for _, j := range jobs {
		if j.URL == "" {
			out = append(out, j)
			continue
		}
		if i, ok := slot[j.URL]; ok {
			out[i] = j
			continue
		}
		slot[j.URL] = len(out)
		out = append(out, j)
	}
	return out
}
