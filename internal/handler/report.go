package handler

import (
	"net/http"
	"time"

	"github.com/segyhp/coop-engine/internal/domain"
	"github.com/segyhp/coop-engine/internal/service"
	"github.com/segyhp/coop-engine/pkg/response"
	"github.com/segyhp/coop-engine/pkg/utils"
)

const dateLayout = "2006-01-02"

type ReportHandler struct {
	service   service.ReportGenerator
	validator *Validator
}

func NewReportHandler(service service.ReportGenerator, validator *Validator) *ReportHandler {
	return &ReportHandler{
		service:   service,
		validator: validator,
	}
}

// FinancialReport handles GET /reports/financial?start_date=&end_date=.
// Both dates are calendar days in UTC and the end day is included in full.
func (h *ReportHandler) FinancialReport(w http.ResponseWriter, r *http.Request) {
	query := domain.FinancialReportQuery{
		StartDate: r.URL.Query().Get("start_date"),
		EndDate:   r.URL.Query().Get("end_date"),
	}
	if err := h.validator.Validate(query); err != nil {
		response.ValidationFailed(w, FieldErrors(err))
		return
	}

	start, _ := time.Parse(dateLayout, query.StartDate)
	end, _ := time.Parse(dateLayout, query.EndDate)

	report, err := h.service.Generate(r.Context(), utils.DateOnly(start), utils.EndOfDay(end))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, report)
}
