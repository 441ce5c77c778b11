package job

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    Status
		wantErr bool
	}{
		{"Backlog", StatusBacklog, false},
		{"In Progress", StatusInProgress, false},
		{"in_progress", StatusInProgress, false},
		{"in-progress", StatusInProgress, false},
		{"INPROGRESS", StatusInProgress, false},
		{" review ", StatusReview, false},
		{"done", StatusDone, false},
		{"archived", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStatus(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePriority(t *testing.T) {
	p, err := ParsePriority("urgent")
	require.NoError(t, err)
	assert.Equal(t, PriorityUrgent, p)

	_, err = ParsePriority("critical")
	assert.Error(t, err)
}

func TestStatusPriority_JSONUsesDisplayNames(t *testing.T) {
	j := &Job{ID: "x", Title: "T", Client: "C", Status: StatusInProgress, Priority: PriorityHigh}
	b, err := json.Marshal(j)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"status":"In Progress"`)
	assert.Contains(t, string(b), `"priority":"High"`)

	var back Job
	require.NoError(t, json.Unmarshal([]byte(`{"id":"x","status":"Review","priority":""}`), &back))
	assert.Equal(t, StatusReview, back.Status)
	assert.Equal(t, Priority(0), back.Priority)
	assert.Equal(t, PriorityMedium, back.Priority.OrDefault())

	assert.Error(t, json.Unmarshal([]byte(`{"status":"Archived"}`), &back))
}

func TestStatus_YAML(t *testing.T) {
	b, err := yaml.Marshal(map[string]Status{"s": StatusDone})
	require.NoError(t, err)
	assert.Equal(t, "s: Done\n", string(b))

	var out map[string]Status
	require.NoError(t, yaml.Unmarshal([]byte("s: in progress\n"), &out))
	assert.Equal(t, StatusInProgress, out["s"])
}

func TestStatus_MarshalInvalid(t *testing.T) {
	_, err := Status(0).MarshalText()
	assert.Error(t, err)
	_, err = Priority(9).MarshalText()
	assert.Error(t, err)

	b, err := Priority(0).MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "Medium", string(b))
}
