package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio del libro de inventario (sin dependencias externas).
var (
	ErrNotFound                    = errors.New("recurso no encontrado")
	ErrInvalidInput                = errors.New("entrada inválida")
	ErrInsufficientStock           = errors.New("stock insuficiente")
	ErrZeroCostSale                = errors.New("el producto no tiene costo promedio: registre una entrada con costo real antes de vender")
	ErrAmbiguousVariant            = errors.New("más de un producto coincide con la misma clave natural")
	ErrOrphanedReference           = errors.New("la entrada referencia un producto que ya no existe")
	ErrInsufficientHistoricalStock = errors.New("las ventas registradas superan las unidades compradas tras la corrección")
	ErrPersistence                 = errors.New("fallo de persistencia")
)

// Variantes de ErrInvalidInput.
var (
	ErrNonPositiveQuantity = fmt.Errorf("%w: la cantidad debe ser positiva", ErrInvalidInput)
	ErrSizeMismatch        = fmt.Errorf("%w: tallas incompatibles con el producto", ErrInvalidInput)
)

// ErrConflict: otra escritura cambió el estado entre la lectura y el bloqueo; reintentable.
var ErrConflict = fmt.Errorf("%w: conflicto con el estado actual", ErrPersistence)

// Códigos estables expuestos en respuestas HTTP y logs.
const (
	KindValidation                  = "VALIDATION"
	KindInsufficientStock           = "INSUFFICIENT_STOCK"
	KindZeroCostSale                = "ZERO_COST_SALE"
	KindAmbiguousVariant            = "AMBIGUOUS_VARIANT"
	KindNotFound                    = "NOT_FOUND"
	KindOrphanedReference           = "ORPHANED_REFERENCE"
	KindInsufficientHistoricalStock = "INSUFFICIENT_HISTORICAL_STOCK"
	KindPersistence                 = "PERSISTENCE_FAILURE"
)

// Persistence envuelve un error de infraestructura como ErrPersistence.
// Los errores de dominio pasan sin cambios.
func Persistence(err error) error {
	if err == nil || IsDomain(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrPersistence, err)
}

// IsDomain indica si err pertenece a la taxonomía del dominio.
func IsDomain(err error) bool {
	return Kind(err) != KindPersistence || errors.Is(err, ErrPersistence)
}

// Kind clasifica err en uno de los códigos estables. Cualquier error desconocido
// se considera fallo de persistencia.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return KindValidation
	case errors.Is(err, ErrInsufficientStock):
		return KindInsufficientStock
	case errors.Is(err, ErrZeroCostSale):
		return KindZeroCostSale
	case errors.Is(err, ErrAmbiguousVariant):
		return KindAmbiguousVariant
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrOrphanedReference):
		return KindOrphanedReference
	case errors.Is(err, ErrInsufficientHistoricalStock):
		return KindInsufficientHistoricalStock
	default:
		return KindPersistence
	}
}
