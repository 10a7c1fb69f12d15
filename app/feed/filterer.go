package feed

import (
	"fmt"
	"strings"

	"github.com/podsieve/podsieve/app/podcast"
)

// FilterResult pairs an episode with its filter verdict. Filtered episodes
// stay in the result so they can be stored as hidden rather than lost.
type FilterResult struct {
	Episode      podcast.Episode
	IsFiltered   bool
	FilterReason string
}

type Filterer struct{}

func NewFilterer() *Filterer {
	return &Filterer{}
}

func (f *Filterer) Run(episodes []podcast.Episode, config *Config) []FilterResult {
	results := make([]FilterResult, 0, len(episodes))
	for _, ep := range episodes {
		isFiltered, filterReason := f.applyFilters(ep, config.Filters)
		results = append(results, FilterResult{
			Episode:      ep,
			IsFiltered:   isFiltered,
			FilterReason: filterReason,
		})
	}

	return results
}

func (f *Filterer) applyFilters(ep podcast.Episode, filters []ConfigFilter) (bool, string) {
	for _, filter := range filters {
		value := f.getFieldValue(ep, filter.Field)

		for _, exclude := range filter.Excludes {
			if f.matchesFilter(value, exclude) {
				return true, fmt.Sprintf("Excluded by %s filter: contains '%s'", filter.Field, exclude)
			}
		}

		if len(filter.Includes) > 0 {
			matched := false
			for _, include := range filter.Includes {
				if f.matchesFilter(value, include) {
					matched = true
					break
				}
			}
			if !matched {
				return true, fmt.Sprintf("Excluded by %s filter: does not contain any of %v", filter.Field, filter.Includes)
			}
		}
	}

	return false, ""
}

func (f *Filterer) matchesFilter(value, pattern string) bool {
	return strings.Contains(strings.ToLower(value), strings.ToLower(pattern))
}

func (f *Filterer) getFieldValue(ep podcast.Episode, field string) string {
	switch field {
	case "title":
		return ep.Title
	case "description":
		return ep.Description
	case "link":
		return ep.Link
	case "guid":
		return ep.GUID
	case "mime_type":
		return ep.MimeType
	default:
		return ""
	}
}
