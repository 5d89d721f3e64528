package handler

import (
	"net/http"

	"github.com/segyhp/coop-engine/internal/domain"
	"github.com/segyhp/coop-engine/internal/service"
	"github.com/segyhp/coop-engine/pkg/response"
)

type PaymentHandler struct {
	service   service.PaymentRecorder
	validator *Validator
}

func NewPaymentHandler(service service.PaymentRecorder, validator *Validator) *PaymentHandler {
	return &PaymentHandler{
		service:   service,
		validator: validator,
	}
}

// RecordPayment handles POST /installments/{installmentId}/payments
func (h *PaymentHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	installmentID, ok := pathUUID(w, r, "installmentId")
	if !ok {
		return
	}

	var request domain.RecordPaymentRequest
	if !h.validator.decodeAndValidate(w, r, &request) {
		return
	}
	request.InstallmentID = installmentID

	installment, err := h.service.RecordPayment(r.Context(), &request)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, installment)
}
