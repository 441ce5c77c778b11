package person

import "strings"

// UnassignedName is shown wherever a person reference is empty or dangling.
const UnassignedName = "Unassigned"

type Person struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Role  string `json:"role,omitempty" yaml:"role,omitempty"`
	Email string `json:"email,omitempty" yaml:"email,omitempty"`
}

// Roster is the read-only list of people jobs and tasks may reference.
type Roster struct {
	people []Person
	byID   map[string]int
}

func NewRoster(people ...Person) *Roster {
	r := &Roster{
		people: make([]Person, 0, len(people)),
		byID:   make(map[string]int, len(people)),
	}
	for _, p := range people {
		if _, dup := r.byID[p.ID]; dup || p.ID == "" {
			continue
		}
		r.byID[p.ID] = len(r.people)
		r.people = append(r.people, p)
	}
	return r
}

// People returns the roster in declaration order.
func (r *Roster) People() []Person {
	out := make([]Person, len(r.people))
	copy(out, r.people)
	return out
}

func (r *Roster) Get(id string) (Person, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Person{}, false
	}
	return r.people[i], true
}

func (r *Roster) Contains(id string) bool {
	_, ok := r.byID[id]
	return ok
}

func (r *Roster) DisplayName(id string) string {
	p, ok := r.Get(id)
	if !ok {
		return UnassignedName
	}
	return p.Name
}

// ShortName is the first word of the person's name, as shown on badges.
func (r *Roster) ShortName(id string) string {
	p, ok := r.Get(id)
	if !ok {
		return UnassignedName
	}
	if first, _, found := strings.Cut(strings.TrimSpace(p.Name), " "); found {
		return first
	}
	return p.Name
}

func (r *Roster) Len() int {
	return len(r.people)
}
