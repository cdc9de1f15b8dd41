package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/GiorgiUbiria/fakebank/internal/httputil"
	"github.com/GiorgiUbiria/fakebank/internal/logger"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const exportSheet = "Transactions"

var exportHeaders = []string{"ID", "From account", "To account", "Amount", "Timestamp"}

// ExportTransactions streams every transaction, newest first, as an XLSX workbook.
func (h *Handler) ExportTransactions(w http.ResponseWriter, r *http.Request) {
	c, ok := h.admin(w, r)
	if !ok {
		return
	}
	txs, err := h.authority.ListTransactions(r.Context(), c)
	if err != nil {
		fail(w, err)
		return
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		fail(w, err)
		return
	}

	for i, title := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(exportSheet, cell, title)
	}
	for idx, t := range toTransactions(txs) {
		row := idx + 2
		f.SetCellValue(exportSheet, fmt.Sprintf("A%d", row), t.ID)
		f.SetCellValue(exportSheet, fmt.Sprintf("B%d", row), t.FromAccountID)
		f.SetCellValue(exportSheet, fmt.Sprintf("C%d", row), t.ToAccountID)
		f.SetCellValue(exportSheet, fmt.Sprintf("D%d", row), t.Amount)
		f.SetCellValue(exportSheet, fmt.Sprintf("E%d", row), t.Timestamp.Format(time.RFC3339))
	}
	f.SetColWidth(exportSheet, "A", "C", 14)
	f.SetColWidth(exportSheet, "D", "D", 12)
	f.SetColWidth(exportSheet, "E", "E", 26)

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"transactions_%s.xlsx\"",
		time.Now().Format("20060102")))
	if err := f.Write(w); err != nil {
		logger.Log.Error("xlsx export failed", zap.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "export failed")
	}
}
