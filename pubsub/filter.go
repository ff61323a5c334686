package pubsub

// EventFilter narrows an event-listener subscription. A zero filter matches
// every event of the service.
type EventFilter struct {
	EventKey string
}

// Matches reports whether the event passes the filter.
func (f EventFilter) Matches(ev Event) bool {
	return f.EventKey == "" || f.EventKey == ev.EventKey
}

// ResultFilter narrows a result-listener subscription. TaskKey and OutputKey
// must equal the result's keys when set; OutputKey is only meaningful
// together with TaskKey. Tags use match-all semantics: every tag listed here
// must appear in the result's tag set.
type ResultFilter struct {
	TaskKey   string
	OutputKey string
	Tags      []string
}

// Matches reports whether the result passes the filter.
func (f ResultFilter) Matches(r Result) bool {
	if f.TaskKey != "" && f.TaskKey != r.TaskKey {
		return false
	}
	if f.OutputKey != "" && f.OutputKey != r.OutputKey {
		return false
	}
	return hasAllTags(r.Tags, f.Tags)
}

func hasAllTags(have, want []string) bool {
	for _, w := range want {
		found := false
		for _, h := range have {
			if h == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
