package reporter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ScrpTrx-Go/GoTGCollector/internal/domain/model"
	pkg "github.com/ScrpTrx-Go/GoTGCollector/pkg/logger"
	"github.com/samber/lo"
	"github.com/xuri/excelize/v2"
)

const (
	postsSheet    = "Posts"
	channelsSheet = "Channels"
	timeLayout    = "2006-01-02 15:04:05"
)

var (
	postsHeader    = []interface{}{"Channel", "Message ID", "Posted (UTC)", "Text", "Media"}
	channelsHeader = []interface{}{"Channel", "Collected", "Skipped", "Wait", "Partial", "Error"}
)

// Reporter writes one XLSX workbook per cycle into dir.
type Reporter struct {
	log pkg.Logger
	dir string
}

func NewReporter(log pkg.Logger, dir string) *Reporter {
	return &Reporter{log: log, dir: dir}
}

func (r *Reporter) WriteCycleReport(ctx context.Context, label string, res model.CycleResult) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	path := filepath.Join(r.dir, reportName(label, res))

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", postsSheet); err != nil {
		return "", err
	}
	if _, err := f.NewSheet(channelsSheet); err != nil {
		return "", err
	}

	posts := lo.Map(res.Messages, func(m model.MessageRecord, _ int) []interface{} {
		return []interface{}{m.Channel, m.ID, m.Date.UTC().Format(timeLayout), m.Text, yesNo(m.HasMedia)}
	})
	if err := writeRows(f, postsSheet, postsHeader, posts); err != nil {
		return "", err
	}

	channels := lo.Map(res.Outcomes, func(o model.ChannelOutcome, _ int) []interface{} {
		wait, errText := "", ""
		if o.Skip.Wait > 0 {
			wait = o.Skip.Wait.String()
		}
		if o.Skip.Err != nil {
			errText = o.Skip.Err.Error()
		}
		skipped := ""
		if o.Skip.Skipped() {
			skipped = o.Skip.Kind.String()
		}
		return []interface{}{o.Identifier, o.Collected, skipped, wait, yesNo(o.Partial), errText}
	})
	if err := writeRows(f, channelsSheet, channelsHeader, channels); err != nil {
		return "", err
	}

	if err := f.SaveAs(path); err != nil {
		r.log.Error("Failed to save Excel report", "path", path, "err", err)
		return "", fmt.Errorf("save report: %w", err)
	}
	r.log.Info("Report saved", "path", path, "posts", len(res.Messages), "channels", len(res.Outcomes))
	return path, nil
}

func writeRows(f *excelize.File, sheet string, header []interface{}, rows [][]interface{}) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("%s header: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}

func reportName(label string, res model.CycleResult) string {
	label = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ' ' {
			return '_'
		}
		return r
	}, label)
	return fmt.Sprintf("%s-%s.xlsx", label, res.Started.UTC().Format("20060102-150405"))
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
