package catalog

import (
	"sort"
	"strconv"
	"strings"

	"github.com/iliyamo/skillswap/internal/model"
)

// AllCategories is the wildcard category that matches every offering.
const AllCategories = "All"

// DefaultTopProviders is the number of providers shown on the home page.
const DefaultTopProviders = 3

// FilterCatalog returns the offerings visible for a free-text query and a
// category.  An offering is kept when its category matches (or category is
// AllCategories) and the query is a case-insensitive substring of either the
// offering name or the provider name.  The empty query matches everything.
// Catalog order is preserved; the result is never nil.
func FilterCatalog(offerings []model.SkillOffering, query, category string) []model.SkillOffering {
	q := strings.ToLower(query)
	out := make([]model.SkillOffering, 0, len(offerings))
	for _, o := range offerings {
		if category != AllCategories && o.Category != category {
			continue
		}
		if strings.Contains(strings.ToLower(o.Name), q) || strings.Contains(strings.ToLower(o.ProviderName), q) {
			out = append(out, o)
		}
	}
	return out
}

// TopProviders ranks providers by their single best offering and returns at
// most n summaries, highest rating first.
//
// When a provider has two offerings with the same top rating the one seen
// first in catalog order is kept.  That choice is positional, not meaningful.
// Providers whose best ratings are equal are ordered by provider name so the
// output does not depend on map or catalog ordering.
func TopProviders(offerings []model.SkillOffering, n int) []model.ProviderSummary {
	if n <= 0 {
		return []model.ProviderSummary{}
	}
	index := make(map[string]int, len(offerings))
	best := make([]model.ProviderSummary, 0, len(offerings))
	for _, o := range offerings {
		i, seen := index[o.ProviderName]
		if !seen {
			index[o.ProviderName] = len(best)
			best = append(best, model.ProviderSummary{
				ProviderName:      o.ProviderName,
				BestOfferingTitle: o.Name,
				BestRating:        o.Rating,
			})
			continue
		}
		if o.Rating > best[i].BestRating {
			best[i].BestOfferingTitle = o.Name
			best[i].BestRating = o.Rating
		}
	}
	sort.SliceStable(best, func(a, b int) bool {
		if best[a].BestRating != best[b].BestRating {
			return best[a].BestRating > best[b].BestRating
		}
		return best[a].ProviderName < best[b].ProviderName
	})
	if len(best) > n {
		best = best[:n]
	}
	return best
}

// DeriveCategories returns AllCategories followed by every distinct category
// in first-occurrence order.
func DeriveCategories(offerings []model.SkillOffering) []string {
	out := []string{AllCategories}
	seen := make(map[string]struct{}, len(offerings))
	for _, o := range offerings {
		if _, ok := seen[o.Category]; ok {
			continue
		}
		seen[o.Category] = struct{}{}
		out = append(out, o.Category)
	}
	return out
}

// FindByID looks an offering up by the textual form of its id, the way a
// route parameter arrives.  Anything that does not name an offering,
// including non-numeric input, yields ErrNotFound.
func FindByID(offerings []model.SkillOffering, id string) (model.SkillOffering, error) {
	id = strings.TrimSpace(id)
	for _, o := range offerings {
		if strconv.Itoa(o.ID) == id {
			return o, nil
		}
	}
	return model.SkillOffering{}, &NotFoundError{ID: id}
}
