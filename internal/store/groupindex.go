package store

import "fittrack/internal/domain"

// MuscleGroupView is one (category, matching exercises) pair of the derived
// catalog index.
type MuscleGroupView struct {
	Name      string            `json:"name"`
	Exercises []domain.Exercise `json:"exercises"`
}

// GroupByMuscle partitions the exercise list across the known category
// names, preserving the category list's order. Every category gets a group,
// including empty ones (an empty group still renders its heading). An
// exercise whose group name is not in the category list is silently dropped
// from the index. A nil exercise list yields all-empty groups.
//
// Pure function of its inputs; recomputed, never persisted.
func GroupByMuscle(exercises []domain.Exercise, categories []string) []MuscleGroupView {
	views := make([]MuscleGroupView, len(categories))
	index := make(map[string]int, len(categories))
	for i, name := range categories {
		views[i] = MuscleGroupView{Name: name, Exercises: []domain.Exercise{}}
		if _, seen := index[name]; !seen {
			index[name] = i
		}
	}

	for _, ex := range exercises {
		if i, ok := index[ex.MuscleGroup]; ok {
			views[i].Exercises = append(views[i].Exercises, ex)
		}
	}

	return views
}
