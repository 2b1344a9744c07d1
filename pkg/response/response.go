package response

import (
	"encoding/json"
	"net/http"
)

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Code    int         `json:"code"`
	Data    interface{} `json:"data,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
	Error   interface{} `json:"error,omitempty"`
}

func Write(w http.ResponseWriter, statusCode int, body Response) {
	body.Code = statusCode
	body.Success = statusCode < 400

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

func JSON(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	Write(w, statusCode, Response{Message: message, Data: data})
}

func Success(w http.ResponseWriter, message string, data interface{}) {
	JSON(w, http.StatusOK, message, data)
}

func Paginated(w http.ResponseWriter, message string, data, meta interface{}) {
	Write(w, http.StatusOK, Response{Message: message, Data: data, Meta: meta})
}

func Created(w http.ResponseWriter, message string, data interface{}) {
	JSON(w, http.StatusCreated, message, data)
}

func Error(w http.ResponseWriter, statusCode int, message string) {
	Write(w, statusCode, Response{Message: message})
}

// ValidationError answers 400 with the joined message and the per-field
// details under "error".
func ValidationError(w http.ResponseWriter, message string, details interface{}) {
	Write(w, http.StatusBadRequest, Response{Message: message, Error: details})
}

func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, message)
}

func Unauthorized(w http.ResponseWriter, message string) {
	Error(w, http.StatusUnauthorized, message)
}

func Forbidden(w http.ResponseWriter, message string) {
	Error(w, http.StatusForbidden, message)
}

func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, message)
}

func Conflict(w http.ResponseWriter, message string) {
	Error(w, http.StatusConflict, message)
}

func InternalError(w http.ResponseWriter, message string) {
	Error(w, http.StatusInternalServerError, message)
}
