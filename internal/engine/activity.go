package engine

import (
	"fmt"
	"sort"

	"github.com/tartampluch/go-amlich/internal/config"
)

// Category groups related activities.
type Category string

const (
	CategoryCeremony     Category = "ceremony"
	CategoryConstruction Category = "construction"
	CategoryBusiness     Category = "business"
	CategoryTravel       Category = "travel"
	CategoryHealth       Category = "health"
	CategoryStudy        Category = "study"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryCeremony,
	CategoryConstruction,
	CategoryBusiness,
	CategoryTravel,
	CategoryHealth,
	CategoryStudy,
}

// Activity is an undertaking that can be planned on a good day.
type Activity struct {
	ID        string   `json:"id"`
	Category  Category `json:"category"`
	BaseScore int      `json:"base_score"`
}

// NameKey is the translation key of the activity label.
func (a Activity) NameKey() string { return config.TKeyActivityPrefix + a.ID }

// NameKey is the translation key of the category label.
func (c Category) NameKey() string { return config.TKeyCategoryPrefix + string(c) }

var catalog = []Activity{
	{"wedding", CategoryCeremony, 60},
	{"engagement", CategoryCeremony, 58},
	{"ancestor_worship", CategoryCeremony, 62},
	{"funeral", CategoryCeremony, 50},

	{"groundbreaking", CategoryConstruction, 52},
	{"house_construction", CategoryConstruction, 55},
	{"roof_raising", CategoryConstruction, 55},
	{"renovation", CategoryConstruction, 58},

	{"business_opening", CategoryBusiness, 58},
	{"contract_signing", CategoryBusiness, 60},
	{"trading", CategoryBusiness, 56},
	{"debt_collection", CategoryBusiness, 48},

	{"travel", CategoryTravel, 60},
	{"moving_house", CategoryTravel, 55},
	{"vehicle_purchase", CategoryTravel, 57},

	{"medical_treatment", CategoryHealth, 55},
	{"haircut", CategoryHealth, 65},

	{"enrollment", CategoryStudy, 62},
	{"exam", CategoryStudy, 60},
	{"job_start", CategoryStudy, 60},
}

var catalogIndex = func() map[string]Activity {
	m := make(map[string]Activity, len(catalog))
	for _, a := range catalog {
		m[a.ID] = a
	}
	return m
}()

// Activities returns the catalog in display order.
func Activities() []Activity {
	out := make([]Activity, len(catalog))
	copy(out, catalog)
	return out
}

// ActivitiesIn returns the activities of one category.
func ActivitiesIn(c Category) []Activity {
	var out []Activity
	for _, a := range catalog {
		if a.Category == c {
			out = append(out, a)
		}
	}
	return out
}

// ActivityIDs returns every activity id, sorted.
func ActivityIDs() []string {
	ids := make([]string, 0, len(catalog))
	for _, a := range catalog {
		ids = append(ids, a.ID)
	}
	sort.Strings(ids)
	return ids
}

// LookupActivity resolves an activity id.
func LookupActivity(id string) (Activity, error) {
	if id == "" {
		return Activity{}, fmt.Errorf("%w: %s", ErrPrecondition, config.ErrEmptyActivity)
	}
	a, ok := catalogIndex[id]
	if !ok {
		return Activity{}, fmt.Errorf("%w: %w: %q", ErrPrecondition, ErrUnknownActivity, id)
	}
	return a, nil
}
