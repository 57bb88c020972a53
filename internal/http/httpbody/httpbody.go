package httpbody

type ErrorResponse struct {
	Error string `json:"error"`
} // @name ErrorResponse

type StatusResponse struct {
	Status string `json:"status" example:"ok"`
} // @name StatusResponse
