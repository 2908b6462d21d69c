package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"smarthotel-mr/internal/domain"
)

const topologySheet = "Topology"

// TopologyExportHeader 导出表头
var TopologyExportHeader = []string{
	"Level",
	"Space ID",
	"Name",
	"Friendly Name",
	"Type",
	"Parent Space ID",
	"Device Count",
}

func (s *topologyService) ExportTopology(ctx context.Context) ([]byte, error) {
	spaces, err := s.GetSpaces(ctx)
	if err != nil {
		return nil, err
	}
	return GenerateTopologyExport(spaces)
}

// GenerateTopologyExport 深度优先展开空间树，每个空间一行
func GenerateTopologyExport(roots []*domain.Space) ([]byte, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(topologySheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	// 删除默认的 Sheet1
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range TopologyExportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(topologySheet, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(topologySheet, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
	}

	columnWidths := []float64{8, 38, 25, 25, 15, 38, 14}
	for i, w := range columnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(topologySheet, col, col, w); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	row := 2 // 第1行是表头
	visited := map[string]bool{}
	var walk func(spaces []*domain.Space, level int) error
	walk = func(spaces []*domain.Space, level int) error {
		for _, sp := range spaces {
			if sp == nil || visited[sp.ID] {
				continue
			}
			visited[sp.ID] = true
			values := []any{level, sp.ID, sp.Name, sp.FriendlyName, sp.Type, sp.ParentSpaceID, len(sp.Devices)}
			for col, v := range values {
				cell, err := excelize.CoordinatesToCellName(col+1, row)
				if err != nil {
					return err
				}
				if err := f.SetCellValue(topologySheet, cell, v); err != nil {
					return fmt.Errorf("failed to set cell %s: %w", cell, err)
				}
			}
			row++
			if err := walk(sp.ChildSpaces, level+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(roots, 1); err != nil {
		f.Close()
		return nil, err
	}

	// 冻结表头
	if err := f.SetPanes(topologySheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}
	return buf.Bytes(), nil
}
