package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/labstack/echo/v4"

	"github.com/aditbap/eventhub-sub000/ticketing"
)

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type postTransactionResponse struct {
	SnapToken string `json:"snapToken,omitempty"`
	OrderID   string `json:"orderId"`
	IsFree    bool   `json:"isFree,omitempty"`
	IsMock    bool   `json:"isMock,omitempty"`
}

type verifyPaymentResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message,omitempty"`
	Error         string `json:"error,omitempty"`
	Details       string `json:"details,omitempty"`
	Status        string `json:"status,omitempty"`
	TicketID      string `json:"ticketId,omitempty"`
	AlreadyExists bool   `json:"alreadyExists"`
}

type gatewayNotificationResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	TicketID      string `json:"ticketId,omitempty"`
	AlreadyExists bool   `json:"alreadyExists,omitempty"`
}

func (s Server) PostTransaction(c echo.Context) error {
	var request ticketing.CreateTransactionRequest
	if err := c.Bind(&request); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
	}

	result, err := s.initiator.CreateTransaction(c.Request().Context(), request)
	switch {
	case err == nil:
	case errors.Is(err, ticketing.ErrInvalidRequest):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid request", Details: err.Error()})
	case errors.Is(err, ticketing.ErrGatewayFailure):
		log.FromContext(c.Request().Context()).WithError(err).Error("Checkout creation failed")
		return c.JSON(http.StatusBadGateway, errorResponse{
			Error:   "Failed to create payment transaction",
			Details: ticketing.GatewayDetail(err),
		})
	default:
		return fmt.Errorf("could not create transaction: %w", err)
	}

	return c.JSON(http.StatusOK, postTransactionResponse{
		SnapToken: result.SnapToken,
		OrderID:   result.OrderID,
		IsFree:    result.IsFree,
		IsMock:    result.IsMock,
	})
}

func (s Server) PostVerifyPayment(c echo.Context) error {
	var request ticketing.VerifyPaymentRequest
	if err := c.Bind(&request); err != nil {
		return c.JSON(http.StatusBadRequest, verifyPaymentResponse{Error: "Invalid request body"})
	}

	result, err := s.verifier.VerifyPayment(c.Request().Context(), request)
	if err != nil {
		status, response := verifyPaymentFailure(err)
		if status >= http.StatusInternalServerError {
			log.FromContext(c.Request().Context()).WithError(err).Error("Payment verification failed")
		}
		return c.JSON(status, response)
	}

	message := "Payment verified and ticket issued"
	if result.AlreadyExists {
		message = "Ticket already issued for this order"
	}

	return c.JSON(http.StatusOK, verifyPaymentResponse{
		Success:       true,
		Message:       message,
		TicketID:      result.TicketID,
		AlreadyExists: result.AlreadyExists,
	})
}

func verifyPaymentFailure(err error) (int, verifyPaymentResponse) {
	var notConfirmed *ticketing.PaymentNotConfirmedError

	switch {
	case errors.Is(err, ticketing.ErrPaymentPending):
		return http.StatusAccepted, verifyPaymentResponse{Error: "Payment is still pending", Status: "pending"}
	case errors.As(err, &notConfirmed):
		return http.StatusPaymentRequired, verifyPaymentResponse{
			Error:   "Payment not successful",
			Details: notConfirmed.Error(),
			Status:  notConfirmed.Status,
		}
	case errors.Is(err, ticketing.ErrInvalidRequest):
		return http.StatusBadRequest, verifyPaymentResponse{Error: "Invalid request", Details: err.Error()}
	case errors.Is(err, ticketing.ErrEventNotFound):
		return http.StatusNotFound, verifyPaymentResponse{Error: "Event not found"}
	case errors.Is(err, ticketing.ErrGatewayNotConfigured):
		return http.StatusInternalServerError, verifyPaymentResponse{Error: "Payment gateway is not configured"}
	case errors.Is(err, ticketing.ErrGatewayFailure):
		return http.StatusBadGateway, verifyPaymentResponse{
			Error:   "Failed to verify payment with gateway",
			Details: ticketing.GatewayDetail(err),
		}
	default:
		return http.StatusInternalServerError, verifyPaymentResponse{Error: "Internal server error"}
	}
}

func (s Server) PostGatewayNotification(c echo.Context) error {
	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return fmt.Errorf("could not read notification body: %w", err)
	}

	result, err := s.notificationHandler.Handle(c.Request().Context(), payload)
	if errors.Is(err, ticketing.ErrInvalidSignature) {
		return c.JSON(http.StatusForbidden, gatewayNotificationResponse{Message: "Invalid signature"})
	}
	if err != nil {
		log.FromContext(c.Request().Context()).WithError(err).Error("Gateway notification processing failed")
		return c.JSON(http.StatusInternalServerError, gatewayNotificationResponse{Message: "Internal server error"})
	}

	return c.JSON(http.StatusOK, gatewayNotificationResponse{
		Success:       result.Success,
		Message:       result.Message,
		TicketID:      result.TicketID,
		AlreadyExists: result.AlreadyExists,
	})
}
