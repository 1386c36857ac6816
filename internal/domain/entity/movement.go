package entity

import "time"

// Tipos de movimiento del log de auditoría.
const (
	MovementTypeStockIn    = "stock_in"
	MovementTypeSale       = "sale"
	MovementTypeAdjustment = "adjustment"
)

// Tipos de referencia de un movimiento.
const (
	ReferenceStockIn = "stock_in"
	ReferenceSale    = "sale"
)

// Movement registro append-only de un cambio de cantidad de un producto. Nunca se modifica ni elimina.
type Movement struct {
	ID            int64
	TransactionID string // correlación de la operación del coordinador
	ProductID     int64
	Type          string
	Size          string
	Quantity      int // delta con signo
	PreviousTotal int
	CurrentTotal  int
	ReferenceType string
	ReferenceID   int64
	Note          string
	CreatedAt     time.Time
}
