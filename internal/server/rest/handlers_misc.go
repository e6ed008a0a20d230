package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/totymark/totymark/internal/server/auth"
	"github.com/totymark/totymark/internal/server/models"
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, messageResponseRoot{Message: "Welcome to the Totymark API"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if s.health != nil {
		if err := s.health(ctx); err != nil {
			s.logger.Warn(r.Context(), "health check failed", "error", err)
			writeJSONStatus(w, http.StatusServiceUnavailable, healthResponse{Status: "unhealthy", Database: "unreachable"})
			return
		}
	}
	writeJSON(w, healthResponse{Status: "healthy", Database: "connected"})
}

func (s *Server) handlePaymentNotification(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.PrincipalFromContext(r.Context())

	var req paymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	receipt, err := s.notifications.NotifyPayment(r.Context(), p.UserName, models.PaymentNotification{
		PayerName: req.PayerName,
		Amount:    req.Amount.String(),
		Currency:  req.Currency,
		Reference: req.Reference,
		Email:     req.Email,
		Phone:     req.Phone,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, notificationResponse{Emailed: receipt.Emailed, WhatsAppURL: receipt.WhatsAppURL})
}
