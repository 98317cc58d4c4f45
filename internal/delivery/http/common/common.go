package http_common

type ErrorResponse struct {
	Message string `json:"error"`
}
