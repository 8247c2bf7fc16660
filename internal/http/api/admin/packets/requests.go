package packets

type PairDeviceRequest struct {
	Code string `json:"code" binding:"required"`
}

type RenameDeviceRequest struct {
	CustomName string `json:"customName" binding:"required"`
}

type SendCommandRequest struct {
	Command string `json:"command" binding:"required"`
	Action  string `json:"action"`
}
