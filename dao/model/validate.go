package model

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"
)

// ValidationError reports one invalid field. Handlers answer it with 400.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func checkRequired(field, value string, limit int) error {
	if strings.TrimSpace(value) == "" {
		return invalid(field, "this field is required")
	}
	return checkLength(field, value, limit)
}

func checkLength(field, value string, limit int) error {
	if utf8.RuneCountInString(value) > limit {
		return invalid(field, "ensure this field has no more than %d characters", limit)
	}
	return nil
}

func checkOptionalLength(field string, value *string, limit int) error {
	if value == nil {
		return nil
	}
	return checkLength(field, *value, limit)
}

func checkNonNegative(field string, value *int) error {
	if value != nil && *value < 0 {
		return invalid(field, "must not be negative")
	}
	return nil
}

// ValidateName checks a PLO or Processor name.
func ValidateName(name string) error {
	return checkRequired("name", name, MaxLookupNameLength)
}

// Validate checks required fields, lengths and choice membership. Foreign keys are
// checked against the store by the caller.
func (i *Item) Validate() error {
	checks := []error{
		checkRequired("sid", i.SID, 3),
		requireDate("requested_date", i.RequestedDate),
		choice("flavour", string(i.Flavour), i.Flavour.Valid()),
		checkNonNegative("estimated_clients", &i.EstimatedClients),
		checkNonNegative("delivered_clients", i.DeliveredClients),
		choice("bfs", string(i.BFS), i.BFS.Valid()),
		choice("t_shirt_size", string(i.TShirtSize), i.TShirtSize.Valid()),
		checkRequired("system_type", i.SystemType, 300),
		choice("hardware", string(i.Hardware), i.Hardware.Valid()),
		checkRequired("setup", i.Setup, 100),
		requireRef("plo", i.PLOID),
		requireRef("processor1", i.Processor1ID),
		choice("status", string(i.Status), i.Status.Valid()),
		checkRequired("landscape", i.Landscape, 300),
		checkRequired("description", i.Description, 500),
		checkOptionalLength("delivery_delay_reason", i.DeliveryDelayReason, 500),
		checkURL("servicenow", i.ServiceNow, 800),
		checkOptionalLength("comments", i.Comments, 400),
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	return nil
}

func (f *Forecast) Validate() error {
	checks := []error{
		requireRef("item_sid", f.ItemID),
		checkRequired("sid", f.SID, 3),
		checkNonNegative("clients", f.Clients),
		choice("bfs", string(f.BFS), f.BFS.Valid()),
		checkRequired("system_description", f.SystemDescription, 300),
		checkNonNegative("time_weeks", f.TimeWeeks),
		checkRequired("landscape", f.Landscape, 300),
		checkRequired("frontend", f.Frontend, 100),
		choice("assigned_to", string(f.AssignedTo), f.AssignedTo.Valid()),
		checkOptionalLength("comments", f.Comments, 400),
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	return nil
}

func choice(field, value string, ok bool) error {
	if ok {
		return nil
	}
	if value == "" {
		return invalid(field, "this field is required")
	}
	return invalid(field, "%q is not a valid choice", value)
}

func requireDate(field string, d Date) error {
	if d.IsZero() {
		return invalid(field, "this field is required")
	}
	return nil
}

func requireRef(field string, id uint) error {
	if id == 0 {
		return invalid(field, "this field is required")
	}
	return nil
}

func checkURL(field, value string, limit int) error {
	if value == "" {
		return nil
	}
	if err := checkLength(field, value, limit); err != nil {
		return err
	}
	u, err := url.Parse(value)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return invalid(field, "enter a valid URL")
	}
	return nil
}
