package alert

import (
	"bytes"
	"fmt"
	"html/template"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/raids-lab/buildtracker/dao/model"
)

// Field is one labelled item value of a notification.
type Field struct {
	Label string
	Value string
}

// itemFields lists the item keys in the order they are shown.
var itemFields = []struct{ key, label string }{
	{"requested_date", "Requested Date"},
	{"flavour", "Flavour"},
	{"sid", "SID"},
	{"estimated_clients", "Estimated Clients"},
	{"delivered_clients", "Delivered Clients"},
	{"bfs", "BFS"},
	{"t_shirt_size", "T-Shirt Size"},
	{"system_type", "System Type"},
	{"hardware", "Hardware"},
	{"setup", "Setup"},
	{"plo", "PLO"},
	{"processor1", "Processor1"},
	{"processor2", "Processor2"},
	{"status", "Status"},
	{"landscape", "Landscape"},
	{"description", "Description"},
	{"expected_delivery", "Expected Delivery"},
	{"revised_delivery_date", "Revised Delivery Date"},
	{"delivery_date", "Delivery Date"},
	{"delivery_delay_reason", "Delivery Delay Reason"},
	{"servicenow", "ServiceNow"},
	{"comments", "Comments"},
}

// ItemDetails flattens the item into the key/value form the frontend posts as itemDetails.
func ItemDetails(item *model.Item) map[string]any {
	return map[string]any{
		"requested_date":        item.RequestedDate.String(),
		"flavour":               string(item.Flavour),
		"sid":                   item.SID,
		"estimated_clients":     item.EstimatedClients,
		"delivered_clients":     item.DeliveredClients,
		"bfs":                   string(item.BFS),
		"t_shirt_size":          string(item.TShirtSize),
		"system_type":           item.SystemType,
		"hardware":              string(item.Hardware),
		"setup":                 item.Setup,
		"plo":                   item.PLOName(),
		"processor1":            item.Processor1Name(),
		"processor2":            item.Processor2Name(),
		"status":                string(item.Status),
		"landscape":             item.Landscape,
		"description":           item.Description,
		"expected_delivery":     item.ExpectedDelivery,
		"revised_delivery_date": item.RevisedDeliveryDate,
		"delivery_date":         item.DeliveryDate.String(),
		"delivery_delay_reason": item.DeliveryDelayReason,
		"servicenow":            item.ServiceNow,
		"comments":              item.Comments,
	}
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case *int:
		if val == nil {
			return ""
		}
		return fmt.Sprint(*val)
	case *string:
		return lo.FromPtr(val)
	case *model.Date:
		if val == nil {
			return ""
		}
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// DetailFields orders details by the known item fields; unknown keys follow sorted by name.
func DetailFields(details map[string]any) []Field {
	fields := make([]Field, 0, len(details))
	known := make(map[string]bool, len(itemFields))
	for _, f := range itemFields {
		known[f.key] = true
		if v, ok := details[f.key]; ok {
			fields = append(fields, Field{Label: f.label, Value: formatValue(v)})
		}
	}
	extra := lo.Filter(lo.Keys(details), func(k string, _ int) bool { return !known[k] })
	slices.Sort(extra)
	for _, k := range extra {
		fields = append(fields, Field{Label: k, Value: formatValue(details[k])})
	}
	return fields
}

var detailsTemplate = template.Must(template.New("details").Parse(
	`<p>The status for system <strong>{{.SID}}</strong> has been updated to "<strong>{{.Status}}</strong>".</p>
{{- if .Fields}}
<div style="max-height: 400px; overflow-y: auto; border: 1px solid #ccc; border-radius: 5px;">
<table style="width: 100%; border-collapse: collapse;">
<thead><tr>{{range .Fields}}<th style="border: 1px solid #ddd; padding: 10px; background-color: #f2f2f2; text-align: center;">{{.Label}}</th>{{end}}</tr></thead>
<tbody><tr>{{range .Fields}}<td style="border: 1px solid #ddd; padding: 10px; text-align: center;">{{.Value}}</td>{{end}}</tr></tbody>
</table>
</div>
{{- end}}`))

// StatusUpdateMessage renders a status change. The field table is included only when
// withDetails is set, which callers do for the terminal status.
func StatusUpdateMessage(sid, status string, details map[string]any, withDetails bool) *Message {
	var fields []Field
	if withDetails {
		fields = DetailFields(details)
	}

	var text strings.Builder
	fmt.Fprintf(&text, "The status for system %s has been updated to %q.\n", sid, status)
	for _, f := range fields {
		fmt.Fprintf(&text, "%s: %s\n", f.Label, f.Value)
	}

	var html bytes.Buffer
	err := detailsTemplate.Execute(&html, struct {
		SID    string
		Status string
		Fields []Field
	}{sid, status, fields})
	htmlBody := html.String()
	if err != nil {
		htmlBody = ""
	}

	return &Message{
		Subject: fmt.Sprintf("Status Update for System %s", sid),
		Text:    text.String(),
		HTML:    htmlBody,
	}
}

// ItemMessage renders the notification for an item that reached the terminal status,
// listing every field of the item.
func ItemMessage(item *model.Item) *Message {
	msg := StatusUpdateMessage(item.SID, string(item.Status), ItemDetails(item), true)
	msg.Subject = "Item Status Updated: " + item.SID
	return msg
}
