package state

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	contractx "github.com/tanpawarit/agent-sender/agent/contract"
	"github.com/xuri/excelize/v2"
)

const (
	ExportLeads  = "leads"
	ExportEmails = "emails"
	ExportSteps  = "steps"

	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

var (
	ErrUnknownExportKind   = errors.New("unknown export kind")
	ErrUnknownExportFormat = errors.New("unknown export format")
)

type table struct {
	header []string
	rows   [][]string
}

// Export writes every record of one kind to <dir>/<kind>_<timestamp>.<format>
// and returns the file path.
func Export(ctx context.Context, store contractx.Store, kind, format, dir string) (string, error) {
	kind = strings.ToLower(strings.TrimSpace(kind))
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatCSV
	}
	if format != FormatCSV && format != FormatXLSX {
		return "", fmt.Errorf("%w: %q", ErrUnknownExportFormat, format)
	}

	t, err := loadTable(ctx, store, kind)
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(dir) == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.%s", kind, time.Now().UTC().Format("20060102_150405"), format))

	switch format {
	case FormatXLSX:
		err = writeXLSX(path, kind, t)
	default:
		err = writeCSV(path, t)
	}
	if err != nil {
		return "", err
	}
	return path, nil
}

func loadTable(ctx context.Context, store contractx.Store, kind string) (table, error) {
	switch kind {
	case ExportLeads:
		leads, err := store.AllLeads(ctx)
		if err != nil {
			return table{}, err
		}
		t := table{header: []string{"name", "company", "role", "email", "company_description", "found_at", "source"}}
		for _, l := range leads {
			t.rows = append(t.rows, []string{l.Name, l.Company, l.Role, l.Email, l.CompanyDescription, formatTime(l.FoundAt), l.Source})
		}
		return t, nil
	case ExportEmails:
		emails, err := store.AllEmails(ctx)
		if err != nil {
			return table{}, err
		}
		t := table{header: []string{"to", "subject", "body", "lead_name", "lead_company"}}
		for _, e := range emails {
			t.rows = append(t.rows, []string{e.To, e.Subject, e.Body, e.Lead.Name, e.Lead.Company})
		}
		return t, nil
	case ExportSteps:
		records, err := store.AllSteps(ctx)
		if err != nil {
			return table{}, err
		}
		t := table{header: []string{"recorded_at", "kind", "run_id", "goal", "step_id", "tool", "status", "description", "error", "send_to", "send_status"}}
		for _, r := range records {
			row := []string{formatTime(r.RecordedAt), string(r.Kind), r.RunID, r.Goal, "", "", "", "", "", "", ""}
			if r.Step != nil {
				row[4] = strconv.Itoa(r.Step.ID)
				row[5] = string(r.Step.Tool)
				row[6] = string(r.Step.Status)
				row[7] = r.Step.Description
				row[8] = r.Step.Error
			}
			if r.SendResult != nil {
				row[8] = r.SendResult.Error
				row[9] = r.SendResult.To
				row[10] = string(r.SendResult.Status)
			}
			t.rows = append(t.rows, row)
		}
		return t, nil
	default:
		return table{}, fmt.Errorf("%w: %q", ErrUnknownExportKind, kind)
	}
}

func writeCSV(path string, t table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := w.WriteAll(t.rows); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return f.Close()
}

func writeXLSX(path, sheet string, t table) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}
	if err := f.SetSheetRow(sheet, "A1", &t.header); err != nil {
		return fmt.Errorf("write xlsx header: %w", err)
	}
	for i, row := range t.rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write xlsx row %d: %w", i+1, err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save xlsx: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
