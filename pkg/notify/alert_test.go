package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lgmodeler/lgmodeler/pkg/project"
	"github.com/lgmodeler/lgmodeler/pkg/status"
)

func onlyError(s status.StepStatus) bool { return s == status.Error }

func TestNewAlerts(t *testing.T) {
	p, err := project.Load("../project/testdata/chatbot.yaml")
	require.NoError(t, err)

	t.Run("no previous project reports every match", func(t *testing.T) {
		alerts := NewAlerts(nil, p, onlyError)
		require.Len(t, alerts, 1)
		assert.Equal(t, Alert{
			Project: "support-chatbot", TraceID: "run-2", TraceName: "retrieval failure",
			Index: 1, Node: "retrieve", Status: status.Error, Note: "vector store timeout",
		}, alerts[0])
	})

	t.Run("unchanged project reports nothing", func(t *testing.T) {
		assert.Empty(t, NewAlerts(p, p, onlyError))
	})

	t.Run("step turning into error is reported", func(t *testing.T) {
		next := &project.Project{Name: "x", Traces: []project.Trace{
			{ID: "run-1", Steps: []project.Step{{Node: "classify", Status: status.Fired}, {Node: "retrieve", Status: status.Error}}},
		}}
		alerts := NewAlerts(p, next, onlyError)
		require.Len(t, alerts, 1)
		assert.Equal(t, "run-1", alerts[0].TraceID)
		assert.Equal(t, 1, alerts[0].Index)
	})

	t.Run("custom predicate", func(t *testing.T) {
		alerts := NewAlerts(nil, p, func(s status.StepStatus) bool { return s == status.Blocked })
		require.Len(t, alerts, 1)
		assert.Equal(t, "escalate", alerts[0].Node)
	})

	t.Run("nil service predicate never matches", func(t *testing.T) {
		var svc *Service
		assert.Empty(t, NewAlerts(nil, p, svc.Alerting))
	})
}
