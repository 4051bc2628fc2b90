package importer

import (
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/raids-lab/buildtracker/dao/model"
)

// Day/month/year comes first, it is what the upload template asks for.
var dateLayouts = []string{
	"2/1/2006",
	"2/1/2006 15:04",
	"2/1/2006 15:04:05",
	"2.1.2006",
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// ParseDate reads a date cell. Text in one of the known layouts and Excel serial
// numbers are accepted; anything else reports ok false.
func ParseDate(value string) (model.Date, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return model.Date{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return model.DateOf(t), true
		}
	}
	if serial, err := strconv.ParseFloat(value, 64); err == nil && serial > 0 {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return model.DateOf(t), true
		}
	}
	return model.Date{}, false
}

func parseOptionalDate(value string) *model.Date {
	d, ok := ParseDate(value)
	if !ok {
		return nil
	}
	return &d
}
