package http

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aditbap/eventhub-sub000/entity"
)

func (s Server) GetEventRegistrations(c echo.Context) error {
	registrations, err := s.registrationsReadModel.Get(c.Request().Context(), c.Param("event_id"))
	if err != nil {
		return fmt.Errorf("could not get registrations: %w", err)
	}

	return c.JSON(http.StatusOK, registrations)
}

func (s Server) PostRebuildEventRegistrations(c echo.Context) error {
	err := s.registrationsMigration.Rebuild(c.Request().Context(), c.Param("event_id"))
	if err != nil {
		return fmt.Errorf("could not rebuild registrations: %w", err)
	}

	return c.NoContent(http.StatusAccepted)
}

// PutEvent syncs an event record owned by the event catalogue into the local store.
func (s Server) PutEvent(c echo.Context) error {
	var event entity.Event
	if err := c.Bind(&event); err != nil {
		return err
	}
	event.ID = c.Param("event_id")

	if event.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing title")
	}
	if event.Price.IsNegative() {
		return echo.NewHTTPError(http.StatusBadRequest, "price must not be negative")
	}

	if err := s.eventsRepo.Store(c.Request().Context(), event); err != nil {
		return fmt.Errorf("could not store event: %w", err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (s Server) PutUser(c echo.Context) error {
	var user entity.User
	if err := c.Bind(&user); err != nil {
		return err
	}
	user.ID = c.Param("user_id")

	if err := s.usersRepo.Store(c.Request().Context(), user); err != nil {
		return fmt.Errorf("could not store user: %w", err)
	}

	return c.NoContent(http.StatusNoContent)
}
