package endpoints

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Dune-pebbler/izi-casting/internal/command"
	"github.com/Dune-pebbler/izi-casting/internal/http/api/admin/packets"
	"github.com/Dune-pebbler/izi-casting/internal/model"
	"github.com/Dune-pebbler/izi-casting/internal/pairing"
	"github.com/Dune-pebbler/izi-casting/internal/store"
)

type DeviceController struct {
	store store.Store
}

func NewDeviceController(st store.Store) *DeviceController {
	return &DeviceController{store: st}
}

func RegisterDeviceRoutes(r gin.IRoutes, st store.Store) {
	ctl := NewDeviceController(st)

	r.GET("/devices", ctl.listDevices)
	r.POST("/devices/pair", ctl.pairDevice)
	r.POST("/devices/:id/unpair", ctl.unpairDevice)
	r.PUT("/devices/:id/name", ctl.renameDevice)
	r.POST("/devices/:id/command", ctl.sendCommand)
}

// GET /api/admin/devices
func (d *DeviceController) listDevices(c *gin.Context) {
	docs, err := d.store.List(c, store.DeviceKey(""))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list devices"})
		return
	}

	now := time.Now()
	out := make([]packets.DeviceResponse, 0, len(docs))
	for _, doc := range docs {
		var device model.Device
		if err := json.Unmarshal(doc, &device); err != nil {
			log.Error().Err(err).Msg("skipping malformed device document")
			continue
		}
		out = append(out, packets.DeviceResponse{
			ID:                 device.ID,
			CustomName:         device.CustomName,
			IsLinked:           device.IsLinked,
			IsPaired:           device.IsPaired,
			Online:             device.Online(now),
			LastSeen:           device.LastSeen.Format(time.RFC3339),
			DeviceInfo:         device.DeviceInfo,
			DisplayPairingCode: device.DisplayPairingCode,
		})
	}

	c.JSON(http.StatusOK, out)
}

// POST /api/admin/devices/pair
func (d *DeviceController) pairDevice(c *gin.Context) {
	var req packets.PairDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	deviceID, err := pairing.Claim(c, d.store, req.Code)
	switch {
	case errors.Is(err, store.ErrCodeNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "invalid code"})
		return
	case errors.Is(err, store.ErrCodeUsed):
		c.JSON(http.StatusConflict, gin.H{"error": "code already used"})
		return
	case errors.Is(err, store.ErrCodeExpired):
		c.JSON(http.StatusGone, gin.H{"error": "code expired"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not pair device"})
		return
	}

	c.JSON(http.StatusOK, packets.PairDeviceResponse{DeviceID: deviceID})
}

// POST /api/admin/devices/:id/unpair
func (d *DeviceController) unpairDevice(c *gin.Context) {
	deviceID := c.Param("id")
	if err := pairing.Unpair(c, d.store, deviceID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not unpair device"})
		return
	}
	c.Status(http.StatusOK)
}

// PUT /api/admin/devices/:id/name
func (d *DeviceController) renameDevice(c *gin.Context) {
	deviceID := c.Param("id")

	var req packets.RenameDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	patch, _ := json.Marshal(map[string]string{"customName": req.CustomName})
	if err := d.store.Put(c, store.DeviceKey(deviceID), patch, true); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not rename device"})
		return
	}
	c.Status(http.StatusOK)
}

// POST /api/admin/devices/:id/command
func (d *DeviceController) sendCommand(c *gin.Context) {
	deviceID := c.Param("id")

	var req packets.SendCommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := command.Send(c, d.store, deviceID, req.Command, req.Action); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not send command"})
		return
	}
	c.Status(http.StatusOK)
}
