package stats

import "sort"

// Registry holds the Year in Review service for each served year.
type Registry struct {
	years map[int]*YearService
}

func NewRegistry() *Registry {
	return &Registry{years: make(map[int]*YearService)}
}

// Register adds svc under its year, replacing any earlier service.
func (r *Registry) Register(svc *YearService) {
	r.years[svc.Year()] = svc
}

// Get retrieves the service for year.
func (r *Registry) Get(year int) (*YearService, bool) {
	svc, ok := r.years[year]
	return svc, ok
}

// Years returns the registered years, newest first.
func (r *Registry) Years() []int {
	years := make([]int, 0, len(r.years))
	for y := range r.years {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}
