package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureDefinition() *Definition {
	return &Definition{
		Sid:  "mailer",
		Name: "Mailer",
		Tasks: Tasks(
			Task{
				Key:    "send",
				Inputs: Params(Parameter{Key: "to", Type: "String"}, Parameter{Key: "body", Type: "String"}),
				Outputs: Outputs(
					Output{Key: "success", Data: Params(Parameter{Key: "messageID", Type: "String"})},
					Output{Key: "failure", Data: Params(Parameter{Key: "reason", Type: "String"})},
				),
			},
		),
		Events: Events(
			Event{Key: "bounced", Data: Params(Parameter{Key: "to", Type: "String"})},
		),
	}
}

func TestDefinitionLookups(t *testing.T) {
	def := fixtureDefinition()

	task, ok := def.Task("send")
	require.True(t, ok)
	assert.Equal(t, "send", task.Key)

	_, ok = def.Task("nope")
	assert.False(t, ok)

	_, ok = def.Event("bounced")
	assert.True(t, ok)

	_, ok = def.Event("nope")
	assert.False(t, ok)
}

func TestTaskOutputs(t *testing.T) {
	def := fixtureDefinition()
	task, ok := def.Task("send")
	require.True(t, ok)

	// declaration order is preserved
	assert.Equal(t, []string{"success", "failure"}, task.OutputKeys())
	assert.True(t, task.HasOutput("failure"))
	assert.False(t, task.HasOutput("retry"))
}

func TestTaskWithoutOutputs(t *testing.T) {
	task := Task{Key: "fire"}
	assert.Empty(t, task.OutputKeys())
	assert.False(t, task.HasOutput("anything"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		def     *Definition
		wantErr string
	}{
		{"valid", fixtureDefinition(), ""},
		{"nil", nil, "definition is required"},
		{"missing sid", &Definition{}, "sid is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.def.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateMismatchedKeys(t *testing.T) {
	def := &Definition{Sid: "s", Tasks: Tasks(Task{Key: "a"})}
	// rekey the entry so the map key and the task key disagree
	def.Tasks.Delete("a")
	def.Tasks.Set("b", Task{Key: "a"})
	require.Error(t, def.Validate())

	def = &Definition{Sid: "s", Events: Events(Event{Key: "x"})}
	def.Events.Delete("x")
	def.Events.Set("y", Event{Key: "x"})
	require.Error(t, def.Validate())
}
