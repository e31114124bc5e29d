// Package export renders consignment statements as spreadsheets.
package export

import (
	"fmt"

	appconsignment "github.com/erp/consignment/internal/application/consignment"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	statementSheet = "Acerto"
	lineHeaderRow  = 6

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var lineHeaders = []string{
	"Produto", "Enviado", "Vendido", "Devolvido", "Pendente",
	"Preço unitário", "Comissão %", "Valor vendido", "Comissão",
}

// XLSXStatementRenderer writes a settlement statement workbook
type XLSXStatementRenderer struct {
	printer *message.Printer
}

// NewXLSXStatementRenderer creates a renderer with pt-BR number formatting
func NewXLSXStatementRenderer() *XLSXStatementRenderer {
	return &XLSXStatementRenderer{printer: message.NewPrinter(language.BrazilianPortuguese)}
}

func (r *XLSXStatementRenderer) ContentType() string { return xlsxContentType }

func (r *XLSXStatementRenderer) Extension() string { return "xlsx" }

// Render builds the workbook: header block, one row per line, then totals
func (r *XLSXStatementRenderer) Render(c *appconsignment.ConsignmentResponse) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", statementSheet); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return nil, err
	}

	w := &sheetWriter{f: f, sheet: statementSheet}

	w.set(1, 1, "Acerto de consignação "+c.Reference)
	w.set(1, 2, "Cliente")
	w.set(2, 2, c.CustomerName)
	w.set(1, 3, "Status")
	w.set(2, 3, statusLabel(c.Status))
	w.set(1, 4, "Enviado em")
	w.set(2, 4, c.SentAt.Format("02/01/2006"))
	if c.ClosedAt != nil {
		w.set(3, 4, "Encerrado em")
		w.set(4, 4, c.ClosedAt.Format("02/01/2006"))
	}

	for i, h := range lineHeaders {
		w.set(i+1, lineHeaderRow, h)
	}

	row := lineHeaderRow
	for _, l := range c.Lines {
		row++
		w.set(1, row, l.ProductName)
		w.set(2, row, l.Sent)
		w.set(3, row, l.Sold)
		w.set(4, row, l.Returned)
		w.set(5, row, l.Remaining)
		w.set(6, row, l.UnitPrice.InexactFloat64())
		w.set(7, row, l.CommissionPercent.InexactFloat64())
		w.set(8, row, l.SoldValue.InexactFloat64())
		w.set(9, row, l.CommissionValue.InexactFloat64())
	}
	lastLine := row

	row += 2
	totalsStart := row
	totals := []struct {
		label string
		value float64
	}{
		{"Total vendido", c.TotalSoldValue.InexactFloat64()},
		{"Comissão total", c.TotalCommission.InexactFloat64()},
		{"Líquido", c.TotalNet.InexactFloat64()},
		{"Em aberto", c.OutstandingValue.InexactFloat64()},
	}
	for i, t := range totals {
		w.set(1, totalsStart+i, t.label)
		w.set(2, totalsStart+i, t.value)
	}
	row = totalsStart + len(totals)
	w.set(1, row, r.summary(c))

	if w.err != nil {
		return nil, w.err
	}

	w.style(1, 1, 1, 1, bold)
	w.style(1, lineHeaderRow, len(lineHeaders), lineHeaderRow, bold)
	if lastLine > lineHeaderRow {
		w.style(6, lineHeaderRow+1, 6, lastLine, money)
		w.style(8, lineHeaderRow+1, 9, lastLine, money)
	}
	w.style(2, totalsStart, 2, totalsStart+len(totals)-1, money)
	if err := f.SetColWidth(statementSheet, "A", "A", 32); err != nil {
		return nil, err
	}
	if w.err != nil {
		return nil, w.err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *XLSXStatementRenderer) summary(c *appconsignment.ConsignmentResponse) string {
	var sold, returned int
	for _, l := range c.Lines {
		sold += l.Sold
		returned += l.Returned
	}
	return r.printer.Sprintf("%d peças enviadas, %d vendidas, %d devolvidas. Líquido R$ %.2f",
		c.TotalSent, sold, returned, c.TotalNet.InexactFloat64())
}

func statusLabel(status string) string {
	switch status {
	case "OPEN":
		return "Aberto"
	case "PARTIAL":
		return "Parcial"
	case "CLOSED":
		return "Encerrado"
	default:
		return status
	}
}

// sheetWriter keeps the first error so cell writes read as a flat list
type sheetWriter struct {
	f     *excelize.File
	sheet string
	err   error
}

func (w *sheetWriter) set(col, row int, value any) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetCellValue(w.sheet, cell, value)
}

func (w *sheetWriter) style(fromCol, fromRow, toCol, toRow, styleID int) {
	if w.err != nil {
		return
	}
	from, err := excelize.CoordinatesToCellName(fromCol, fromRow)
	if err != nil {
		w.err = err
		return
	}
	to, err := excelize.CoordinatesToCellName(toCol, toRow)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetCellStyle(w.sheet, from, to, styleID)
}

var _ appconsignment.StatementRenderer = (*XLSXStatementRenderer)(nil)
