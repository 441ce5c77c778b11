package person

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoster(t *testing.T) {
	r := DemoRoster()
	assert.Equal(t, 6, r.Len())

	p, ok := r.Get("p2")
	assert.True(t, ok)
	assert.Equal(t, "Aisha", p.Name)
	assert.True(t, r.Contains("p6"))
	assert.False(t, r.Contains("p7"))

	assert.Equal(t, "Feras Shoujah", r.DisplayName("p1"))
	assert.Equal(t, "Feras", r.ShortName("p1"))
	assert.Equal(t, "Omar", r.ShortName("p3"))
	assert.Equal(t, UnassignedName, r.DisplayName("ghost"))
	assert.Equal(t, UnassignedName, r.ShortName(""))
}

func TestNewRoster_SkipsDuplicatesAndBlankIDs(t *testing.T) {
	r := NewRoster(
		Person{ID: "a", Name: "First"},
		Person{ID: "a", Name: "Second"},
		Person{ID: "", Name: "Nobody"},
	)
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, "First", r.DisplayName("a"))
}

func TestRoster_PeopleIsACopy(t *testing.T) {
	r := DemoRoster()
	people := r.People()
	people[0].Name = "Changed"
	assert.Equal(t, "Feras Shoujah", r.DisplayName("p1"))
}
