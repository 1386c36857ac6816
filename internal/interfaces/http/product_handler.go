package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/ledger-api/internal/application/audit"
	"github.com/jhoicas/ledger-api/internal/application/dto"
	"github.com/jhoicas/ledger-api/internal/application/ledger"
)

// ProductHandler consultas de productos, su log de movimientos y su conciliación.
type ProductHandler struct {
	ledger  *ledger.Coordinator
	auditor *audit.Auditor
}

// NewProductHandler construye el handler.
func NewProductHandler(c *ledger.Coordinator, a *audit.Auditor) *ProductHandler {
	return &ProductHandler{ledger: c, auditor: a}
}

// List godoc
// @Summary      Listar productos
// @Tags         products
// @Produce      json
// @Param        category_id  query  int  false  "Filtrar por categoría"
// @Success      200  {object}  dto.ListResponse[dto.ProductResponse]
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/products [get]
func (h *ProductHandler) List(c *fiber.Ctx) error {
	categoryID, ok := queryID(c, "category_id")
	if !ok {
		return badRequest(c, "INVALID_CATEGORY_ID", "category_id inválido")
	}
	list, err := h.ledger.ListProducts(c.UserContext(), categoryID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.MapList(list, dto.NewProductResponse))
}

// GetByID godoc
// @Summary      Obtener producto
// @Tags         products
// @Produce      json
// @Param        id   path  int  true  "ID del producto"
// @Success      200  {object}  dto.ProductResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id} [get]
func (h *ProductHandler) GetByID(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "INVALID_ID", "id inválido")
	}
	p, err := h.ledger.GetProduct(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewProductResponse(p))
}

// Resolve godoc
// @Summary      Resolver producto por clave natural
// @Description  Devuelve el ID del producto (categoría, nombre, atributo); lo crea vacío si no existe.
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ResolveProductRequest  true  "Clave natural"
// @Success      200   {object}  map[string]int64
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/products/resolve [post]
func (h *ProductHandler) Resolve(c *fiber.Ctx) error {
	var in dto.ResolveProductRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	id, err := h.ledger.ResolveProduct(c.UserContext(), in.CategoryID, in.Name, in.VariantAttr)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"product_id": id})
}

// Movements godoc
// @Summary      Log de movimientos del producto
// @Tags         products
// @Produce      json
// @Param        id     path   int  true   "ID del producto"
// @Param        limit  query  int  false  "Máximo de registros (default 100)"
// @Success      200  {object}  dto.ListResponse[dto.MovementResponse]
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id}/movements [get]
func (h *ProductHandler) Movements(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "INVALID_ID", "id inválido")
	}
	list, err := h.ledger.ListMovements(c.UserContext(), id, c.QueryInt("limit", ledger.DefaultMovementLimit))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.MapList(list, dto.NewMovementResponse))
}

// Audit godoc
// @Summary      Conciliar producto
// @Description  Verifica compras = valor en stock + costo de ventas y los invariantes de stock.
// @Tags         products
// @Produce      json
// @Param        id   path  int  true  "ID del producto"
// @Success      200  {object}  entity.ProductAudit
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id}/audit [get]
func (h *ProductHandler) Audit(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "INVALID_ID", "id inválido")
	}
	out, err := h.auditor.AuditProduct(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
