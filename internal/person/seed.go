package person

// DemoRoster is the fixed six-person team the board ships with.
func DemoRoster() *Roster {
	return NewRoster(
		Person{ID: "p1", Name: "Feras Shoujah", Role: "Director"},
		Person{ID: "p2", Name: "Aisha", Role: "Designer"},
		Person{ID: "p3", Name: "Omar", Role: "Copywriter"},
		Person{ID: "p4", Name: "Lina", Role: "Motion"},
		Person{ID: "p5", Name: "Samir", Role: "Media"},
		Person{ID: "p6", Name: "Rami", Role: "Accounts"},
	)
}
