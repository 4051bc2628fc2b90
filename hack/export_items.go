// Usage: BUILDTRACKER_CONFIG_PATH=${PWD}/etc/debug-config.yaml go run hack/export_items.go -year 2024
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/raids-lab/buildtracker/dao/model"
	"github.com/raids-lab/buildtracker/dao/query"
	"github.com/raids-lab/buildtracker/pkg/importer"
)

func main() {
	year := flag.Int("year", 0, "only export items requested in this year")
	output := flag.String("o", "items_export.csv", "output file")
	flag.Parse()

	q := query.Use(query.GetDB())
	items, _, err := q.ListItems(context.Background(), query.ItemFilter{Year: *year}, nil)
	if err != nil {
		panic(fmt.Errorf("failed to fetch items: %w", err))
	}

	file, err := os.Create(*output)
	if err != nil {
		panic(fmt.Errorf("failed to create CSV file: %w", err))
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Same columns as the upload template, names instead of ids
	if err := writer.Write(importer.Columns); err != nil {
		panic(fmt.Errorf("failed to write CSV header: %w", err))
	}
	for i := range items {
		if err := writer.Write(itemToCSVRecord(&items[i])); err != nil {
			panic(fmt.Errorf("failed to write CSV record: %w", err))
		}
	}

	fmt.Printf("Successfully exported %d items to %s\n", len(items), *output)
}

func itemToCSVRecord(item *model.Item) []string {
	formatDate := func(d *model.Date) string {
		if d == nil {
			return ""
		}
		return d.String()
	}
	formatInt := func(n *int) string {
		if n == nil {
			return ""
		}
		return strconv.Itoa(*n)
	}
	formatString := func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	}

	return []string{
		item.SID,
		item.RequestedDate.String(),
		string(item.Flavour),
		strconv.Itoa(item.EstimatedClients),
		formatInt(item.DeliveredClients),
		string(item.BFS),
		string(item.TShirtSize),
		item.SystemType,
		string(item.Hardware),
		item.Setup,
		item.PLOName(),
		item.Processor1Name(),
		item.Processor2Name(),
		string(item.Status),
		item.Landscape,
		item.Description,
		formatDate(item.ExpectedDelivery),
		formatDate(item.RevisedDeliveryDate),
		item.DeliveryDate.String(),
		formatString(item.DeliveryDelayReason),
		item.ServiceNow,
		formatString(item.Comments),
	}
}
