package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"
	"time"

	"github.com/Shivanand-hulikatti/academy-events/internal/form"
	"github.com/Shivanand-hulikatti/academy-events/internal/model"
)

// ExportRegistrations writes the event's registrations as CSV and returns a
// suggested file name. Columns are the fixed registration attributes, then
// one per current form field label, then one per form-data key that only
// older registrations carry.
func (s *RegistrationService) ExportRegistrations(ctx context.Context, eventID string, w io.Writer) (string, error) {
	event, err := eventExists(ctx, s.events, eventID)
	if err != nil {
		return "", err
	}
	fields, err := s.fields.ListByEvent(ctx, eventID)
	if err != nil {
		return "", fmt.Errorf("load form schema: %w", err)
	}
	regs, err := s.registrations.ListByEvent(ctx, eventID)
	if err != nil {
		return "", fmt.Errorf("list registrations: %w", err)
	}

	compiled := form.Compile(fields)
	keys := compiled.Names()
	header := []string{"Registration Number", "Participant", "Email", "Phone", "Status", "Registered At"}
	for _, f := range compiled.Fields {
		header = append(header, f.Descriptor.Label)
	}

	var historical []string
	for _, reg := range regs {
		for k := range reg.FormData {
			if !slices.Contains(keys, k) && !slices.Contains(historical, k) {
				historical = append(historical, k)
			}
		}
	}
	slices.Sort(historical)
	header = append(header, historical...)
	keys = append(keys, historical...)

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return "", fmt.Errorf("write csv header: %w", err)
	}
	for _, reg := range regs {
		row := []string{
			reg.RegistrationNumber,
			reg.ParticipantName,
			reg.Email,
			reg.Phone,
			string(reg.Status),
			reg.CreatedAt.In(s.opts.Location).Format("2006-01-02 15:04"),
		}
		for _, k := range keys {
			row = append(row, formatValue(reg.FormData[k]))
		}
		if err := cw.Write(row); err != nil {
			return "", fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}
	return event.Slug + "-registrations.csv", nil
}

// formatValue renders a stored form value. Values read back from JSON
// storage arrive as generic JSON types, fresh ones as typed Go values.
func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return "Yes"
		}
		return "No"
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case model.Date:
		return v.String()
	case time.Time:
		return v.Format(model.DateLayout)
	case model.FileRef:
		return v.Filename
	case map[string]any:
		if name, ok := v["filename"].(string); ok {
			return name
		}
	}
	return fmt.Sprint(v)
}
