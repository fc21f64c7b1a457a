package notify

import (
	"github.com/lgmodeler/lgmodeler/pkg/project"
	"github.com/lgmodeler/lgmodeler/pkg/status"
)

// Alert describes one step that reached an alerting outcome.
type Alert struct {
	Project   string            `json:"project"`
	File      string            `json:"file,omitempty"`
	TraceID   string            `json:"trace_id"`
	TraceName string            `json:"trace_name"`
	Index     int               `json:"index"` // zero-based step position in the trace
	Node      string            `json:"node"`
	Status    status.StepStatus `json:"status"`
	Note      string            `json:"note,omitempty"`
}

// NewAlerts returns alerts for steps of next whose outcome matches alerting and that
// did not have the same outcome at the same position of the same trace in prev.
// prev may be nil, then every matching step is new.
func NewAlerts(prev, next *project.Project, alerting func(status.StepStatus) bool) []Alert {
	type stepKey struct {
		trace string
		index int
		node  string
	}
	seen := map[stepKey]status.StepStatus{}
	if prev != nil {
		for _, tr := range prev.Traces {
			for i, st := range tr.Steps {
				seen[stepKey{tr.ID, i, st.Node}] = st.Status
			}
		}
	}

	var res []Alert
	for _, tr := range next.Traces {
		for i, st := range tr.Steps {
			if !alerting(st.Status) {
				continue
			}
			if old, ok := seen[stepKey{tr.ID, i, st.Node}]; ok && old == st.Status {
				continue
			}
			res = append(res, Alert{
				Project: next.Name, TraceID: tr.ID, TraceName: tr.Name,
				Index: i, Node: st.Node, Status: st.Status, Note: st.Note,
			})
		}
	}
	return res
}
