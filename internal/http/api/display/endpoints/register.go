package endpoints

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Dune-pebbler/izi-casting/internal/http/api/display/packets"
	"github.com/Dune-pebbler/izi-casting/internal/store"
)

type DisplayController struct {
	store store.Store
}

func NewDisplayController(st store.Store) *DisplayController {
	return &DisplayController{store: st}
}

// RegisterDisplayRoutes mounts the unauthenticated display-facing
// endpoints: displays announce themselves with their locally persisted
// device identity; pairing, not auth, gates what they get to show.
func RegisterDisplayRoutes(r gin.IRoutes, st store.Store) {
	ctl := NewDisplayController(st)

	r.POST("/register", ctl.registerDevice)
}

// POST /api/display/register
func (d *DisplayController) registerDevice(c *gin.Context) {
	var req packets.RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// merge keeps an existing record's pairing state and custom name
	doc, _ := json.Marshal(map[string]any{
		"id":         req.DeviceID,
		"deviceInfo": req.DeviceInfo,
		"lastSeen":   time.Now(),
	})
	if err := d.store.Put(c, store.DeviceKey(req.DeviceID), doc, true); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not register device"})
		return
	}

	log.Info().Str("deviceID", req.DeviceID).Msg("device registered")
	c.JSON(http.StatusOK, gin.H{"success": "device registered"})
}
