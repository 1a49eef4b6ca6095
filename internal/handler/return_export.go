package handler

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"time"

	"github.com/ERPlora/module-returns/internal/domain"
	"github.com/xuri/excelize/v2"
)

func exportReturnsCSV(items []domain.Return) ([]byte, error) {
	buf := new(bytes.Buffer)
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"number", "customer", "status", "refund_method", "subtotal", "tax", "total_refund", "created_at", "completed_at"})
	for _, ret := range items {
		completed := ""
		if ret.CompletedAt != nil {
			completed = ret.CompletedAt.Format(time.RFC3339)
		}
		_ = w.Write([]string{
			ret.Number,
			ret.CustomerName,
			string(ret.Status),
			string(ret.RefundMethod),
			strconv.FormatInt(ret.Subtotal.Amount, 10),
			strconv.FormatInt(ret.TaxAmount.Amount, 10),
			strconv.FormatInt(ret.TotalRefund.Amount, 10),
			ret.CreatedAt.Format(time.RFC3339),
			completed,
		})
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func exportReturnsXLSX(items []domain.Return) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "Returns"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	header := []string{"Number", "Customer", "Status", "Refund Method", "Subtotal", "Tax", "Total Refund", "Created", "Completed"}
	for c, v := range header {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		_ = f.SetCellValue(sheet, cell, v)
	}
	for r, ret := range items {
		row := r + 2
		completed := ""
		if ret.CompletedAt != nil {
			completed = ret.CompletedAt.Format("2006-01-02 15:04")
		}
		values := []any{
			ret.Number,
			ret.CustomerName,
			string(ret.Status),
			string(ret.RefundMethod),
			ret.Subtotal.Amount,
			ret.TaxAmount.Amount,
			ret.TotalRefund.Amount,
			ret.CreatedAt.Format("2006-01-02 15:04"),
			completed,
		}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 18)
	_ = f.SetColWidth(sheet, "B", "B", 28)
	_ = f.SetColWidth(sheet, "C", "D", 14)
	_ = f.SetColWidth(sheet, "E", "G", 14)
	_ = f.SetColWidth(sheet, "H", "I", 18)

	style, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#1F2937"}, Pattern: 1},
	})
	_ = f.SetCellStyle(sheet, "A1", "I1", style)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
