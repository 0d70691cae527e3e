package pdi

// MaxActionsPerCategory caps how many actions one category section of
// a plan document may list.
const MaxActionsPerCategory = 5

// CategoryGroup is one rendered section of a plan: a category plus the
// actions selected for it.
type CategoryGroup struct {
	Category string
	Actions  []Action
}

// GroupActions buckets actions by category, preserving the order
// categories first appear in the input, and keeps at most
// MaxActionsPerCategory actions per bucket (the first ones
// encountered; there is no ranking among actions).
func GroupActions(actions []Action) []CategoryGroup {
	var groups []CategoryGroup
	index := map[string]int{}
	for _, a := range actions {
		i, ok := index[a.Category]
		if !ok {
			i = len(groups)
			index[a.Category] = i
			groups = append(groups, CategoryGroup{Category: a.Category})
		}
		if len(groups[i].Actions) >= MaxActionsPerCategory {
			continue
		}
		groups[i].Actions = append(groups[i].Actions, a)
	}
	return groups
}
