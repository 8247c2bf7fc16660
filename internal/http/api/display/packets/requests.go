package packets

type RegisterDeviceRequest struct {
	DeviceID   string `json:"deviceId" binding:"required"`
	DeviceInfo string `json:"deviceInfo"`
}
