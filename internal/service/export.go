package service

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"uvpaint-review/internal/domain/review"
)

const (
	sheetInspections = "Inspections"
	sheetCameras     = "Cameras"
)

// BuildMetricsWorkbook renders both metric tables into an xlsx workbook:
// one sheet per table, rows in the same order the API serves them.
func BuildMetricsWorkbook(metrics review.MetricsReport) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := writeSheet(f, sheetInspections,
		[]string{"Inspection", "Vehicle", "Groups", "Published Images", "Images With Actions", "Avg Actions", "Prev Mean", "Latest Mean", "Difference", "Change %"},
		len(metrics.TableA),
		func(i int) []any {
			r := metrics.TableA[i]
			return []any{r.InspectionID, r.Vehicle, r.Groups, r.PublishedImages, r.ImagesWithActions, r.AvgActions, r.PrevMeanActions, r.LatestMeanActions, r.Difference, r.PercentChange}
		}); err != nil {
		return nil, err
	}

	if err := writeSheet(f, sheetCameras,
		[]string{"Bucket", "Camera", "Side", "Original Camera", "Groups", "Prev Mean", "Latest Mean", "Difference", "Change %"},
		len(metrics.TableD),
		func(i int) []any {
			r := metrics.TableD[i]
			return []any{r.Bucket, r.Camera, r.Side, r.OriginalCameraID, r.Groups, r.PrevMeanActions, r.LatestMeanActions, r.Difference, r.PercentChange}
		}); err != nil {
		return nil, err
	}

	// Drop the default sheet excelize creates.
	if idx, err := f.GetSheetIndex(sheetInspections); err == nil {
		f.SetActiveSheet(idx)
	}
	_ = f.DeleteSheet("Sheet1")

	return f, nil
}

func writeSheet(f *excelize.File, name string, header []string, rows int, rowAt func(int) []any) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}
	if err := writeRow(f, name, 1, toAny(header)); err != nil {
		return err
	}
	for i := 0; i < rows; i++ {
		if err := writeRow(f, name, i+2, rowAt(i)); err != nil {
			return err
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write row %d of %s: %w", row, sheet, err)
	}
	return nil
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
