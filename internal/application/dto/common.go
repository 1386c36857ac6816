package dto

// ErrorResponse cuerpo de error HTTP. Code es uno de los códigos estables del dominio
// (VALIDATION, NOT_FOUND, INSUFFICIENT_STOCK, ...) o un código de la capa HTTP (INVALID_BODY, INVALID_ID).
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
