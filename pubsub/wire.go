package pubsub

import (
	"bytes"
	"fmt"

	"github.com/go-openapi/strfmt"
	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Wire encoding for the three fan-out message kinds. Messages carry a type
// discriminant so a relay subject can mix kinds; payloads round-trip
// verbatim when they are JSON and as strings otherwise.

var (
	taskJSON   = []byte(`{"type":"task"}`)
	resultJSON = []byte(`{"type":"result"}`)
	eventJSON  = []byte(`{"type":"event"}`)
)

// MarshalJSON implements custom JSON marshaling for TaskRequest.
func (r TaskRequest) MarshalJSON() ([]byte, error) {
	out, err := sjson.SetBytes(taskJSON, "executionID", r.ExecutionID)
	if err != nil {
		return nil, err
	}
	if out, err = sjson.SetBytes(out, "taskKey", r.TaskKey); err != nil {
		return nil, err
	}
	if out, err = setPayload(out, "inputs", r.Inputs); err != nil {
		return nil, err
	}
	return setTimestamp(out, r.Timestamp)
}

// UnmarshalJSON implements custom JSON unmarshaling for TaskRequest.
func (r *TaskRequest) UnmarshalJSON(data []byte) error {
	if err := checkType(data, "task"); err != nil {
		return err
	}
	r.ExecutionID = gjson.GetBytes(data, "executionID").String()
	r.TaskKey = gjson.GetBytes(data, "taskKey").String()
	r.Inputs = getPayload(data, "inputs")
	return getTimestamp(data, &r.Timestamp)
}

// MarshalJSON implements custom JSON marshaling for Result.
func (r Result) MarshalJSON() ([]byte, error) {
	out, err := sjson.SetBytes(resultJSON, "executionID", r.ExecutionID)
	if err != nil {
		return nil, err
	}
	if out, err = sjson.SetBytes(out, "serviceID", r.ServiceID); err != nil {
		return nil, err
	}
	if out, err = sjson.SetBytes(out, "taskKey", r.TaskKey); err != nil {
		return nil, err
	}
	if out, err = sjson.SetBytes(out, "outputKey", r.OutputKey); err != nil {
		return nil, err
	}
	if out, err = setPayload(out, "outputs", r.Outputs); err != nil {
		return nil, err
	}
	if len(r.Tags) > 0 {
		tags, merr := json.Marshal(r.Tags)
		if merr != nil {
			return nil, merr
		}
		if out, err = sjson.SetRawBytes(out, "tags", tags); err != nil {
			return nil, err
		}
	}
	return setTimestamp(out, r.Timestamp)
}

// UnmarshalJSON implements custom JSON unmarshaling for Result.
func (r *Result) UnmarshalJSON(data []byte) error {
	if err := checkType(data, "result"); err != nil {
		return err
	}
	r.ExecutionID = gjson.GetBytes(data, "executionID").String()
	r.ServiceID = gjson.GetBytes(data, "serviceID").String()
	r.TaskKey = gjson.GetBytes(data, "taskKey").String()
	r.OutputKey = gjson.GetBytes(data, "outputKey").String()
	r.Outputs = getPayload(data, "outputs")
	if tags := gjson.GetBytes(data, "tags"); tags.Exists() {
		if err := json.Unmarshal([]byte(tags.Raw), &r.Tags); err != nil {
			return fmt.Errorf("invalid tags: %w", err)
		}
	}
	return getTimestamp(data, &r.Timestamp)
}

// MarshalJSON implements custom JSON marshaling for Event.
func (e Event) MarshalJSON() ([]byte, error) {
	out, err := sjson.SetBytes(eventJSON, "serviceID", e.ServiceID)
	if err != nil {
		return nil, err
	}
	if out, err = sjson.SetBytes(out, "eventKey", e.EventKey); err != nil {
		return nil, err
	}
	if out, err = setPayload(out, "data", e.Data); err != nil {
		return nil, err
	}
	return setTimestamp(out, e.Timestamp)
}

// UnmarshalJSON implements custom JSON unmarshaling for Event.
func (e *Event) UnmarshalJSON(data []byte) error {
	if err := checkType(data, "event"); err != nil {
		return err
	}
	e.ServiceID = gjson.GetBytes(data, "serviceID").String()
	e.EventKey = gjson.GetBytes(data, "eventKey").String()
	e.Data = getPayload(data, "data")
	return getTimestamp(data, &e.Timestamp)
}

func checkType(data []byte, want string) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid json: %s", data)
	}
	msgType := gjson.GetBytes(data, "type")
	if !msgType.Exists() || msgType.String() != want {
		return fmt.Errorf("missing or invalid type, expected %q", want)
	}
	return nil
}

// setPayload embeds an opaque payload: raw when it is a JSON document, as a
// string otherwise. Either way the bytes come back out of getPayload
// unchanged. JSON string literals go the string route so the decoder can
// tell them apart from text payloads.
func setPayload(out []byte, key string, payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return out, nil
	}
	trimmed := bytes.TrimSpace(payload)
	if gjson.ValidBytes(payload) && len(trimmed) > 0 && trimmed[0] != '"' {
		return sjson.SetRawBytes(out, key, payload)
	}
	return sjson.SetBytes(out, key, string(payload))
}

func getPayload(data []byte, key string) []byte {
	field := gjson.GetBytes(data, key)
	if !field.Exists() {
		return nil
	}
	if field.Type == gjson.String {
		return []byte(field.String())
	}
	return []byte(field.Raw)
}

func setTimestamp(out []byte, ts strfmt.DateTime) ([]byte, error) {
	if ts.IsZero() {
		return out, nil
	}
	return sjson.SetBytes(out, "timestamp", ts.String())
}

func getTimestamp(data []byte, ts *strfmt.DateTime) error {
	field := gjson.GetBytes(data, "timestamp")
	if !field.Exists() {
		return nil
	}
	if err := ts.UnmarshalText([]byte(field.String())); err != nil {
		return fmt.Errorf("invalid timestamp: %w", err)
	}
	return nil
}
