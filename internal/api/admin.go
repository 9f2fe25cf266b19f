package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleAdminUsers(c *gin.Context) {
	users, err := s.users.ListAll(c.Request.Context())
	if err != nil {
		log.Printf("admin: list users failed: %v", err)
		fail(c, http.StatusInternalServerError, "could not list users")
		return
	}
	c.JSON(http.StatusOK, users)
}

func (s *Server) handleAdminStats(c *gin.Context) {
	ctx := c.Request.Context()
	totalUsers, err := s.users.CountAll(ctx)
	if err != nil {
		log.Printf("admin: count users failed: %v", err)
		fail(c, http.StatusInternalServerError, "could not load stats")
		return
	}
	totalPredictions, err := s.detections.CountAll(ctx)
	if err != nil {
		log.Printf("admin: count predictions failed: %v", err)
		fail(c, http.StatusInternalServerError, "could not load stats")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total_users":       totalUsers,
		"total_predictions": totalPredictions,
	})
}
