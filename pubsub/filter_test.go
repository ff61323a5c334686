package pubsub

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventFilter(t *testing.T) {
	ev := Event{ServiceID: "svc", EventKey: "started"}

	assert.True(t, EventFilter{}.Matches(ev), "zero filter matches everything")
	assert.True(t, EventFilter{EventKey: "started"}.Matches(ev))
	assert.False(t, EventFilter{EventKey: "stopped"}.Matches(ev))
}

func TestResultFilter(t *testing.T) {
	res := Result{
		ExecutionID: "E1",
		ServiceID:   "svc",
		TaskKey:     "taskX",
		OutputKey:   "outputX",
		Tags:        []string{"tagX=1", "tagY"},
	}

	tests := []struct {
		name   string
		filter ResultFilter
		want   bool
	}{
		{"zero filter", ResultFilter{}, true},
		{"task key match", ResultFilter{TaskKey: "taskX"}, true},
		{"task key mismatch", ResultFilter{TaskKey: "taskY"}, false},
		{"task and output match", ResultFilter{TaskKey: "taskX", OutputKey: "outputX"}, true},
		{"output mismatch", ResultFilter{TaskKey: "taskX", OutputKey: "outputY"}, false},
		{"single tag present", ResultFilter{Tags: []string{"tagX=1"}}, true},
		{"all tags present", ResultFilter{Tags: []string{"tagX=1", "tagY"}}, true},
		{"one tag missing", ResultFilter{Tags: []string{"tagX=1", "tagZ"}}, false},
		{"tag absent", ResultFilter{Tags: []string{"tagZ"}}, false},
		{"everything", ResultFilter{TaskKey: "taskX", OutputKey: "outputX", Tags: []string{"tagY"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(res))
		})
	}
}

func TestResultFilterSubsetSemantics(t *testing.T) {
	// a listener filtering on ["tagX=1"] sees an execution tagged
	// ["tagX=1","tagY"] but not one tagged ["tagY"] only
	filter := ResultFilter{Tags: []string{"tagX=1"}}
	assert.True(t, filter.Matches(Result{Tags: []string{"tagX=1", "tagY"}}))
	assert.False(t, filter.Matches(Result{Tags: []string{"tagY"}}))
}
