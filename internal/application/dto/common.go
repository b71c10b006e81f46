package dto

// Límites de paginación del libro de movimientos.
const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// PageRequest limit/offset de un listado.
type PageRequest struct {
	Limit  int `query:"limit" validate:"min=0,max=500"`
	Offset int `query:"offset" validate:"min=0"`
}

// DefaultPage normaliza: sin limit se usa DefaultLimit y nunca se supera MaxLimit.
func (p *PageRequest) DefaultPage() {
	switch {
	case p.Limit <= 0:
		p.Limit = DefaultLimit
	case p.Limit > MaxLimit:
		p.Limit = MaxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// PageResponse página devuelta. Returned < Limit indica que no hay más resultados.
type PageResponse struct {
	Limit    int `json:"limit"`
	Offset   int `json:"offset"`
	Returned int `json:"returned"`
}

// FieldError campo de un body o query que no supera la validación.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// ErrorResponse cuerpo de error HTTP. Code es estable (ver domain.Code); Fields solo en VALIDATION.
type ErrorResponse struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Fields  []FieldError `json:"fields,omitempty"`
}
