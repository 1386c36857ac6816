package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/ledger-api/internal/application/dto"
	"github.com/jhoicas/ledger-api/internal/application/ledger"
)

// StockInHandler maneja las entradas de mercancía.
type StockInHandler struct {
	ledger *ledger.Coordinator
}

// NewStockInHandler construye el handler.
func NewStockInHandler(c *ledger.Coordinator) *StockInHandler {
	return &StockInHandler{ledger: c}
}

// Create godoc
// @Summary      Registrar entrada de mercancía
// @Description  Resuelve (o crea) el producto por categoría, nombre y atributo de variante y
//
//	actualiza stock y costo promedio ponderado en una sola transacción.
//
// @Tags         stock-ins
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateStockInRequest  true  "Entrada de mercancía"
// @Success      201   {object}  dto.StockInResultResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /api/stock-ins [post]
func (h *StockInHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateStockInRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	input, err := in.ToInput()
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.ledger.CreateStockIn(c.UserContext(), input)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewStockInResultResponse(out))
}

// GetByID godoc
// @Summary      Obtener entrada de mercancía
// @Tags         stock-ins
// @Produce      json
// @Param        id   path  int  true  "ID de la entrada"
// @Success      200  {object}  dto.StockInResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock-ins/{id} [get]
func (h *StockInHandler) GetByID(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "INVALID_ID", "id inválido")
	}
	e, err := h.ledger.GetStockIn(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewStockInResponse(e))
}

// List godoc
// @Summary      Listar entradas de un producto
// @Tags         stock-ins
// @Produce      json
// @Param        product_id  query  int  true  "ID del producto"
// @Success      200  {object}  dto.ListResponse[dto.StockInResponse]
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock-ins [get]
func (h *StockInHandler) List(c *fiber.Ctx) error {
	productID, ok := queryID(c, "product_id")
	if !ok || productID == nil {
		return badRequest(c, "MISSING_PRODUCT_ID", "product_id es requerido")
	}
	list, err := h.ledger.ListStockIns(c.UserContext(), *productID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.MapList(list, dto.NewStockInResponse))
}

// Edit godoc
// @Summary      Editar entrada de mercancía
// @Description  Recalcula retroactivamente el costo promedio y el costo de ventas del producto.
// @Tags         stock-ins
// @Accept       json
// @Produce      json
// @Param        id    path  int  true  "ID de la entrada"
// @Param        body  body  dto.EditStockInRequest  true  "Campos a modificar"
// @Success      200   {object}  dto.RevisionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/stock-ins/{id} [patch]
func (h *StockInHandler) Edit(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "INVALID_ID", "id inválido")
	}
	var in dto.EditStockInRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	input, err := in.ToInput()
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.ledger.EditStockIn(c.UserContext(), id, input)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewRevisionResponse(out))
}

// Delete godoc
// @Summary      Eliminar entrada de mercancía
// @Description  force=true permite eliminar una entrada cuyo producto ya no existe.
// @Tags         stock-ins
// @Produce      json
// @Param        id     path   int   true   "ID de la entrada"
// @Param        force  query  bool  false  "Eliminar aunque el producto no exista"
// @Success      200   {object}  dto.RevisionResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/stock-ins/{id} [delete]
func (h *StockInHandler) Delete(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "INVALID_ID", "id inválido")
	}
	out, err := h.ledger.DeleteStockIn(c.UserContext(), id, c.QueryBool("force", false))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewRevisionResponse(out))
}
