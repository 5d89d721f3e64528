package handler

import (
	"net/http"

	"github.com/segyhp/coop-engine/internal/domain"
	"github.com/segyhp/coop-engine/internal/service"
	"github.com/segyhp/coop-engine/pkg/response"
)

type LoanHandler struct {
	service   service.LoanManager
	validator *Validator
}

func NewLoanHandler(service service.LoanManager, validator *Validator) *LoanHandler {
	return &LoanHandler{
		service:   service,
		validator: validator,
	}
}

// ApplyForLoan handles POST /loans
func (h *LoanHandler) ApplyForLoan(w http.ResponseWriter, r *http.Request) {
	var request domain.ApplyLoanRequest
	if !h.validator.decodeAndValidate(w, r, &request) {
		return
	}

	loan, err := h.service.Apply(r.Context(), &request)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, loan)
}

// ProcessLoan handles POST /loans/{loanId}/process
func (h *LoanHandler) ProcessLoan(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathUUID(w, r, "loanId")
	if !ok {
		return
	}

	var request domain.ProcessLoanRequest
	if !h.validator.decodeAndValidate(w, r, &request) {
		return
	}
	request.LoanID = loanID

	loan, installments, err := h.service.Process(r.Context(), &request)
	if err != nil {
		response.FromError(w, err)
		return
	}

	if installments == nil {
		installments = []*domain.LoanInstallment{}
	}
	response.Success(w, domain.LoanWithScheduleResponse{
		Loan:         loan,
		Installments: installments,
	})
}

// GetLoan handles GET /loans/{loanId}
func (h *LoanHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathUUID(w, r, "loanId")
	if !ok {
		return
	}

	loan, err := h.service.GetLoan(r.Context(), loanID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, loan)
}

// ListInstallments handles GET /loans/{loanId}/installments
func (h *LoanHandler) ListInstallments(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathUUID(w, r, "loanId")
	if !ok {
		return
	}

	installments, err := h.service.ListInstallments(r.Context(), loanID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, installments)
}

// CompleteLoan handles POST /loans/{loanId}/complete
func (h *LoanHandler) CompleteLoan(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathUUID(w, r, "loanId")
	if !ok {
		return
	}

	loan, err := h.service.Complete(r.Context(), loanID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, loan)
}

// ListUserLoans handles GET /users/{userId}/loans
func (h *LoanHandler) ListUserLoans(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(w, r, "userId")
	if !ok {
		return
	}

	loans, err := h.service.ListByUser(r.Context(), userID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, loans)
}
