// Package variant normaliza la clave natural (categoría, nombre, atributo de variante)
// de un producto. Es el único punto donde null, "" y ausente se unifican.
package variant

import (
	"fmt"
	"strings"
)

// None es la representación canónica de "sin valor" para el atributo de variante.
const None = ""

// Key clave natural normalizada de un producto.
type Key struct {
	CategoryID int64
	Name       string
	Attr       string
}

// NormalizeAttr unifica nil, "" y espacios en None; recorta y colapsa espacios internos.
func NormalizeAttr(attr *string) string {
	if attr == nil {
		return None
	}
	return collapse(*attr)
}

// NormalizeName recorta y colapsa espacios del nombre del producto.
func NormalizeName(name string) string {
	return collapse(name)
}

// NewKey construye la clave normalizada.
func NewKey(categoryID int64, name string, attr *string) Key {
	return Key{CategoryID: categoryID, Name: NormalizeName(name), Attr: NormalizeAttr(attr)}
}

// Valid indica si la clave tiene los campos obligatorios.
func (k Key) Valid() bool {
	return k.CategoryID > 0 && k.Name != ""
}

// LockKey clave usada para serializar la creación de productos con la misma clave natural.
func (k Key) LockKey() string {
	return fmt.Sprintf("variant:%d:%s:%s", k.CategoryID, strings.ToLower(k.Name), strings.ToLower(k.Attr))
}

// Matches compara k con campos sin normalizar (datos heredados). Nombre y atributo
// se comparan sin distinguir mayúsculas, igual que LockKey.
func (k Key) Matches(categoryID int64, name, attr string) bool {
	return k.CategoryID == categoryID &&
		strings.EqualFold(k.Name, NormalizeName(name)) &&
		strings.EqualFold(k.Attr, NormalizeAttr(&attr))
}

func (k Key) String() string {
	if k.Attr == None {
		return fmt.Sprintf("%d/%s", k.CategoryID, k.Name)
	}
	return fmt.Sprintf("%d/%s/%s", k.CategoryID, k.Name, k.Attr)
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
