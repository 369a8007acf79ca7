package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"cpu-hotplug-manager/internal/storage"
)

// EventsHandler serve o histórico de transições persistido
type EventsHandler struct {
	persistence *storage.Persistence
}

// NewEventsHandler cria o handler de eventos
func NewEventsHandler(p *storage.Persistence) *EventsHandler {
	return &EventsHandler{persistence: p}
}

// List GET /api/v1/transitions?limit=N: eventos recentes, do mais
// novo para o mais antigo
func (h *EventsHandler) List(c *gin.Context) {
	if h.persistence == nil {
		c.JSON(http.StatusOK, gin.H{"transitions": []storage.Event{}, "count": 0})
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 && v <= 500 {
			limit = v
		}
	}

	events, err := h.persistence.RecentEvents(limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list transition events")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list events"})
		return
	}
	if events == nil {
		events = []storage.Event{}
	}

	c.JSON(http.StatusOK, gin.H{
		"transitions": events,
		"count":       len(events),
	})
}

// Stats GET /api/v1/transitions/stats: contagem por kind + estado do banco
func (h *EventsHandler) Stats(c *gin.Context) {
	if h.persistence == nil {
		c.JSON(http.StatusOK, gin.H{"enabled": false})
		return
	}

	stats, err := h.persistence.Stats()
	if err != nil {
		log.Error().Err(err).Msg("Failed to read persistence stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read stats"})
		return
	}

	byKind, err := h.persistence.CountByKind()
	if err != nil {
		log.Error().Err(err).Msg("Failed to count events by kind")
		byKind = map[string]int64{}
	}

	c.JSON(http.StatusOK, gin.H{
		"enabled":      stats.Enabled,
		"db_path":      stats.DBPath,
		"db_size":      stats.DBSize,
		"total_events": stats.TotalEvents,
		"oldest_event": stats.OldestEvent,
		"newest_event": stats.NewestEvent,
		"by_kind":      byKind,
	})
}
