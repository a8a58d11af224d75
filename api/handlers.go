package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"example.com/stayhub/services/reservation/domain"
	"example.com/stayhub/services/reservation/domain/reservation"
)

// Request payloads. Binding tags are enforced by gin's validator.
type createReservationRequest struct {
	ID         string    `json:"id" binding:"omitempty,aggregate_id"`
	GuestName  string    `json:"guest_name" binding:"required"`
	GuestEmail string    `json:"guest_email" binding:"omitempty,email"`
	UnitID     string    `json:"unit_id" binding:"required"`
	CheckIn    time.Time `json:"check_in" binding:"required"`
	CheckOut   time.Time `json:"check_out" binding:"required"`
	Notes      string    `json:"notes"`
}

type updateReservationRequest struct {
	GuestName  string    `json:"guest_name" binding:"required"`
	GuestEmail string    `json:"guest_email" binding:"omitempty,email"`
	CheckIn    time.Time `json:"check_in" binding:"required"`
	CheckOut   time.Time `json:"check_out" binding:"required"`
	Notes      string    `json:"notes"`
}

type confirmReservationRequest struct {
	ConfirmedBy string `json:"confirmed_by" binding:"required"`
}

type cancelReservationRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type createGuestAccountRequest struct {
	ReservationID string `json:"reservation_id" binding:"required,aggregate_id"`
	Email         string `json:"email" binding:"required,email"`
}

type deactivateGuestAccountRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) createReservation(c *gin.Context) {
	var req createReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	row, err := s.svc.CreateReservation(c.Request.Context(), req.ID, reservation.Details{
		GuestName:  req.GuestName,
		GuestEmail: req.GuestEmail,
		UnitID:     req.UnitID,
		CheckIn:    req.CheckIn,
		CheckOut:   req.CheckOut,
		Notes:      req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, row)
}

func (s *Server) getReservation(c *gin.Context) {
	row, err := s.svc.GetReservation(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, row)
}

func (s *Server) listReservations(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	rows, err := s.svc.ListReservations(c.Request.Context(), c.Query("status"), c.Query("unit_id"), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reservations": rows, "count": len(rows)})
}

func (s *Server) updateReservationDetails(c *gin.Context) {
	var req updateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	row, err := s.svc.UpdateReservationDetails(c.Request.Context(), c.Param("id"), reservation.Details{
		GuestName:  req.GuestName,
		GuestEmail: req.GuestEmail,
		CheckIn:    req.CheckIn,
		CheckOut:   req.CheckOut,
		Notes:      req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, row)
}

func (s *Server) confirmReservation(c *gin.Context) {
	var req confirmReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	row, err := s.svc.ConfirmReservation(c.Request.Context(), c.Param("id"), req.ConfirmedBy)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, row)
}

func (s *Server) cancelReservation(c *gin.Context) {
	var req cancelReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	row, err := s.svc.CancelReservation(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, row)
}

func (s *Server) getReservationEvents(c *gin.Context) {
	events, err := s.svc.GetReservationEvents(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
}

func (s *Server) createGuestAccount(c *gin.Context) {
	var req createGuestAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	row, err := s.svc.CreateGuestAccount(c.Request.Context(), req.ReservationID, req.Email)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, row)
}

func (s *Server) getGuestAccount(c *gin.Context) {
	row, err := s.svc.GetGuestAccount(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, row)
}

func (s *Server) deactivateGuestAccount(c *gin.Context) {
	var req deactivateGuestAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	row, err := s.svc.DeactivateGuestAccount(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, row)
}

func (s *Server) getGuestAccountEvents(c *gin.Context) {
	events, err := s.svc.GetGuestAccountEvents(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
}

// respondError maps domain errors to HTTP status codes.
func respondError(c *gin.Context, err error) {
	switch {
	case domain.IsValidationError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrConcurrencyConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
