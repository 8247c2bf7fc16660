package packets

type DeviceResponse struct {
	ID                 string `json:"id"`
	CustomName         string `json:"customName,omitempty"`
	IsLinked           bool   `json:"isLinked"`
	IsPaired           bool   `json:"isPaired"`
	Online             bool   `json:"online"`
	LastSeen           string `json:"lastSeen"`
	DeviceInfo         string `json:"deviceInfo,omitempty"`
	DisplayPairingCode string `json:"displayPairingCode,omitempty"`
}

type PairDeviceResponse struct {
	DeviceID string `json:"deviceId"`
}
