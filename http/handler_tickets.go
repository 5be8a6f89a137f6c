package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/aditbap/eventhub-sub000/entity"
)

func (s Server) GetUserTickets(c echo.Context) error {
	tickets, err := s.ticketsRepo.FindByUser(c.Request().Context(), c.Param("user_id"))
	if err != nil {
		return fmt.Errorf("could not get tickets: %w", err)
	}
	if tickets == nil {
		tickets = []entity.Ticket{}
	}

	return c.JSON(http.StatusOK, tickets)
}

func (s Server) DeleteUserTicket(c echo.Context) error {
	ticketID := c.Param("ticket_id")
	if _, err := uuid.Parse(ticketID); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "ticket not found")
	}

	err := s.ticketsRepo.Delete(c.Request().Context(), c.Param("user_id"), ticketID)
	if errors.Is(err, entity.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "ticket not found")
	}
	if err != nil {
		return fmt.Errorf("could not delete ticket: %w", err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (s Server) GetUserNotifications(c echo.Context) error {
	notifications, err := s.notificationsRepo.FindByUser(c.Request().Context(), c.Param("user_id"))
	if err != nil {
		return fmt.Errorf("could not get notifications: %w", err)
	}
	if notifications == nil {
		notifications = []entity.Notification{}
	}

	return c.JSON(http.StatusOK, notifications)
}

func (s Server) PostNotificationRead(c echo.Context) error {
	notificationID := c.Param("notification_id")
	if _, err := uuid.Parse(notificationID); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "notification not found")
	}

	err := s.notificationsRepo.MarkRead(c.Request().Context(), c.Param("user_id"), notificationID)
	if errors.Is(err, entity.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "notification not found")
	}
	if err != nil {
		return fmt.Errorf("could not mark notification as read: %w", err)
	}

	return c.NoContent(http.StatusNoContent)
}
