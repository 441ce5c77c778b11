package job

import "time"

const day = 24 * time.Hour

// Seed builds the two demonstration jobs. Due dates are relative to now.
func Seed(now time.Time, newID IDFunc) []*Job {
	at := func(days int) *time.Time {
		t := now.Add(time.Duration(days) * day)
		return &t
	}
	return []*Job{
		{
			ID:          newID(),
			Title:       "Indomie – Japan Flavor Launch",
			Client:      "Indomie Saudi",
			Description: "Social big idea + content calendar",
			Status:      StatusInProgress,
			Priority:    PriorityUrgent,
			DueDate:     at(7),
			OwnerID:     "p1",
			AssigneeIDs: []string{"p2", "p3", "p4"},
			Tasks: []*Task{
				{ID: newID(), Title: "Key visual concepts", AssigneeID: "p2", DueDate: at(2)},
				{ID: newID(), Title: "Copy & captions", AssigneeID: "p3", DueDate: at(3)},
				{ID: newID(), Title: "Animation storyboard", AssigneeID: "p4", DueDate: at(4)},
			},
		},
		{
			ID:          newID(),
			Title:       "Fakieh – Packaging Revamp",
			Client:      "Fakieh Poultry",
			Description: "Revamp packaging system",
			Status:      StatusBacklog,
			Priority:    PriorityHigh,
			DueDate:     at(14),
			OwnerID:     "p1",
			AssigneeIDs: []string{"p2", "p6"},
			Tasks: []*Task{
				{ID: newID(), Title: "dielines audit", AssigneeID: "p2"},
				{ID: newID(), Title: "client workshop plan", AssigneeID: "p6"},
			},
		},
	}
}
