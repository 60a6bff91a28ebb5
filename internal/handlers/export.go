package handlers

import (
	"log/slog"
	"net/http"

	"github.com/tkloetzk/smartgarden/internal/middleware"
	"github.com/tkloetzk/smartgarden/internal/services"
)

type ExportHandler struct {
	exportService *services.ExportService
}

func NewExportHandler(exportService *services.ExportService) *ExportHandler {
	return &ExportHandler{exportService: exportService}
}

func (handler *ExportHandler) CareLog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUser(ctx)

	workbook, err := handler.exportService.CareLogWorkbook(ctx, user.ID)
	if err != nil {
		slog.Error("building care log export", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to build export"})
		return
	}
	defer workbook.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=care-log.xlsx")
	if err := workbook.Write(w); err != nil {
		slog.Error("writing care log export", "error", err)
	}
}
