package variant_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/ledger-api/internal/domain/variant"
)

func strPtr(s string) *string { return &s }

// nil, "" y solo espacios deben producir la misma clave.
func TestNormalizeAttr_NullYVacioSonLaMismaClave(t *testing.T) {
	a := variant.NewKey(3, "Camiseta", nil)
	b := variant.NewKey(3, "Camiseta", strPtr(""))
	c := variant.NewKey(3, " Camiseta ", strPtr("   "))

	assert.Equal(t, a, b, "nil y \"\" deben normalizarse igual")
	assert.Equal(t, a, c, "espacios deben recortarse")
	assert.Equal(t, variant.None, a.Attr)
}

func TestNormalizeAttr_ColapsaEspacios(t *testing.T) {
	assert.Equal(t, "Azul Marino", variant.NormalizeAttr(strPtr("  Azul   Marino ")))
	assert.Equal(t, "Polo Basico", variant.NormalizeName("Polo\tBasico"))
}

func TestKey_Valid(t *testing.T) {
	assert.True(t, variant.NewKey(1, "Gorra", nil).Valid())
	assert.False(t, variant.NewKey(0, "Gorra", nil).Valid(), "categoría obligatoria")
	assert.False(t, variant.NewKey(1, "   ", nil).Valid(), "nombre obligatorio")
}

func TestKey_LockKeyIgnoraMayusculas(t *testing.T) {
	a := variant.NewKey(1, "Gorra", strPtr("Rojo"))
	b := variant.NewKey(1, "gorra", strPtr("rojo"))
	assert.Equal(t, a.LockKey(), b.LockKey())
	assert.NotEqual(t, a, b, "la clave natural conserva mayúsculas; solo el lock las ignora")
}

func TestKey_MatchesDatosHeredados(t *testing.T) {
	k := variant.NewKey(2, "Polo", nil)
	assert.True(t, k.Matches(2, " polo ", ""))
	assert.True(t, k.Matches(2, "POLO", "  "))
	assert.False(t, k.Matches(2, "Polo", "Azul"))
	assert.False(t, k.Matches(3, "Polo", ""))
}
