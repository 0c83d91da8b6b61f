package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/propstack/propstack_backend/internal/dto"
	"github.com/propstack/propstack_backend/internal/scheduler"
)

// registerScheduleRoutes registers the schedule status and toggle routes.
func registerScheduleRoutes(rg *gin.RouterGroup, sched *scheduler.Scheduler) {
	rg.GET("/schedules", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"schedules": sched.Statuses()})
	})

	rg.PATCH("/schedules/:name", func(c *gin.Context) {
		var req dto.UpdateScheduleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
			return
		}
		name := c.Param("name")
		if !sched.SetEnabled(name, *req.Enabled) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown schedule: " + name})
			return
		}
		c.JSON(http.StatusOK, gin.H{"name": name, "enabled": *req.Enabled})
	})
}
