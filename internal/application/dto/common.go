package dto

// PageRequest paginación para listados.
type PageRequest struct {
	Limit  int `query:"limit"`
	Offset int `query:"offset"`
}

// PageResponse metadatos de página en respuestas.
type PageResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total,omitempty"`
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StockErrorResponse error 409 INSUFFICIENT_STOCK con el detalle de la ubicación.
type StockErrorResponse struct {
	ErrorResponse
	Location  string `json:"location"`
	Requested int64  `json:"requested"`
	Available int64  `json:"available"`
}
