package importer

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/samber/lo"

	"github.com/raids-lab/buildtracker/dao/model"
	"github.com/raids-lab/buildtracker/pkg/logutils"
)

// Columns is the header row of the upload template, in order.
var Columns = []string{
	"sid", "requested_date", "flavour", "estimated_clients", "delivered_clients", "bfs",
	"t_shirt_size", "system_type", "hardware", "setup", "plo", "processor1", "processor2",
	"status", "landscape", "description", "expected_delivery", "revised_delivery_date",
	"delivery_date", "delivery_delay_reason", "servicenow", "comments",
}

// RowError tells which line of the sheet stopped the import.
type RowError struct {
	Line  int
	Field string
	Err   error
}

func (e *RowError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("row %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("row %d: %s: %v", e.Line, e.Field, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Lookup resolves owner and processor names read from the sheet. It is built once per
// upload and only read while rows are resolved.
type Lookup struct {
	PLOs       map[string]uint
	Processors map[string]uint
}

// BuildItems resolves every row. The first bad row stops the build and nothing is
// returned, a sid repeated inside the sheet counts as a bad row.
func BuildItems(rows []Row, lookup Lookup) ([]*model.Item, error) {
	if len(rows) == 0 {
		return nil, errors.New("excel file has no data rows")
	}
	items := make([]*model.Item, 0, len(rows))
	seen := make(map[string]int, len(rows))
	for _, row := range rows {
		item, err := BuildItem(row, lookup)
		if err != nil {
			return nil, err
		}
		if line, ok := seen[item.SID]; ok {
			return nil, &RowError{Line: row.Line, Field: "sid",
				Err: fmt.Errorf("duplicate sid %q, already used on row %d", item.SID, line)}
		}
		seen[item.SID] = row.Line
		items = append(items, item)
	}
	return items, nil
}

// BuildItem maps one row onto an Item with resolved references and parsed dates.
func BuildItem(row Row, lookup Lookup) (*model.Item, error) {
	rowErr := func(field string, err error) error {
		return &RowError{Line: row.Line, Field: field, Err: err}
	}

	sid := row.Get("sid")
	if sid == "" {
		return nil, rowErr("sid", errors.New("missing required field"))
	}
	requested := row.Get("requested_date")
	if requested == "" {
		return nil, rowErr("requested_date", errors.New("missing required field"))
	}
	requestedDate, ok := ParseDate(requested)
	if !ok {
		return nil, rowErr("requested_date", fmt.Errorf("invalid date %q, expected dd/mm/yyyy", requested))
	}

	processor1, ok := lookup.Processors[row.Get("processor1")]
	if !ok {
		return nil, rowErr("processor1", fmt.Errorf("processor %q does not exist", row.Get("processor1")))
	}
	var processor2 *uint
	if name := row.Get("processor2"); name != "" {
		if id, found := lookup.Processors[name]; found {
			processor2 = lo.ToPtr(id)
		} else {
			logutils.Log.Warnf("row %d: processor2 %q does not exist, left empty", row.Line, name)
		}
	}
	plo, ok := lookup.PLOs[row.Get("plo")]
	if !ok {
		return nil, rowErr("plo", fmt.Errorf("PLO %q does not exist", row.Get("plo")))
	}

	estimated, err := parseInt(row.Get("estimated_clients"))
	if err != nil {
		return nil, rowErr("estimated_clients", err)
	}
	delivered, err := parseInt(row.Get("delivered_clients"))
	if err != nil {
		return nil, rowErr("delivered_clients", err)
	}

	item := &model.Item{
		SID:                 sid,
		RequestedDate:       requestedDate,
		Flavour:             model.Flavour(row.Get("flavour")),
		EstimatedClients:    lo.FromPtr(estimated),
		DeliveredClients:    delivered,
		BFS:                 model.BFS(row.Get("bfs")),
		TShirtSize:          model.TShirtSize(row.Get("t_shirt_size")),
		SystemType:          row.Get("system_type"),
		Hardware:            model.Hardware(row.Get("hardware")),
		Setup:               row.Get("setup"),
		PLOID:               plo,
		Processor1ID:        processor1,
		Processor2ID:        processor2,
		Status:              model.ItemStatus(row.Get("status")),
		Landscape:           row.Get("landscape"),
		Description:         row.Get("description"),
		ExpectedDelivery:    parseOptionalDate(row.Get("expected_delivery")),
		RevisedDeliveryDate: parseOptionalDate(row.Get("revised_delivery_date")),
		DeliveryDelayReason: optionalString(row.Get("delivery_delay_reason")),
		ServiceNow:          row.Get("servicenow"),
		Comments:            optionalString(row.Get("comments")),
	}
	if d, ok := ParseDate(row.Get("delivery_date")); ok {
		item.DeliveryDate = d
	}
	item.ApplyDefaults()

	if err := item.Validate(); err != nil {
		var ve *model.ValidationError
		if errors.As(err, &ve) {
			return nil, rowErr(ve.Field, errors.New(ve.Message))
		}
		return nil, rowErr("", err)
	}
	return item, nil
}

// parseInt accepts whole numbers, also when Excel stored them as "12.0".
func parseInt(value string) (*int, error) {
	if value == "" {
		return nil, nil
	}
	if n, err := strconv.Atoi(value); err == nil {
		return &n, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f != float64(int(f)) {
		return nil, fmt.Errorf("%q is not a whole number", value)
	}
	return lo.ToPtr(int(f)), nil
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
