// Package templates provides email template components
package templates

import (
	"bytes"
	"html/template"
	"log"
)

// LeaveDecisionProps carries the per-request content for a leave decision email.
type LeaveDecisionProps struct {
	OfficerName  string
	LeaveType    string
	StartDate    string
	EndDate      string
	Decision     string // "APPROVED" or "REJECTED"
	ReviewerNote string
}

type leaveDecisionTemplateData struct {
	OfficerName   string
	LeaveType     string
	StartDate     string
	EndDate       string
	Decision      string
	DecisionColor string
	ReviewerNote  string
}

var leaveDecisionTemplate = template.Must(template.New("leaveDecision").Parse(`
<p style="font-family: Helvetica, sans-serif; font-size: 16px; font-weight: normal; margin: 0; margin-bottom: 16px;">Hi {{.OfficerName}},</p>
<p style="font-family: Helvetica, sans-serif; font-size: 16px; font-weight: normal; margin: 0; margin-bottom: 16px;">
  Your {{.LeaveType}} leave request for <strong>{{.StartDate}}</strong> through <strong>{{.EndDate}}</strong> has been
  <strong style="color: {{.DecisionColor}};">{{.Decision}}</strong>.
</p>
{{if .ReviewerNote}}
<p style="font-family: Helvetica, sans-serif; font-size: 16px; font-weight: normal; margin: 0; margin-bottom: 16px;">
  Reviewer note: {{.ReviewerNote}}
</p>
{{end}}
<p style="font-family: Helvetica, sans-serif; font-size: 16px; font-weight: normal; margin: 0; margin-bottom: 16px;">
  If you have questions about this decision, contact your supervisor.
</p>`))

// GetLeaveDecisionContent renders the body of a leave decision email.
func GetLeaveDecisionContent(props LeaveDecisionProps) string {
	color := "#2e7d32"
	if props.Decision == "REJECTED" {
		color = "#c62828"
	}

	data := leaveDecisionTemplateData{
		OfficerName:   props.OfficerName,
		LeaveType:     props.LeaveType,
		StartDate:     props.StartDate,
		EndDate:       props.EndDate,
		Decision:      props.Decision,
		DecisionColor: color,
		ReviewerNote:  props.ReviewerNote,
	}

	var buf bytes.Buffer
	if err := leaveDecisionTemplate.Execute(&buf, data); err != nil {
		log.Printf("Error executing leave decision template: %v", err)
		return ""
	}
	return buf.String()
}
