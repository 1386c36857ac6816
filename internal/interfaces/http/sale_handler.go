package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/ledger-api/internal/application/dto"
	"github.com/jhoicas/ledger-api/internal/application/ledger"
)

// SaleHandler maneja las ventas.
type SaleHandler struct {
	ledger *ledger.Coordinator
}

// NewSaleHandler construye el handler.
func NewSaleHandler(c *ledger.Coordinator) *SaleHandler {
	return &SaleHandler{ledger: c}
}

// Create godoc
// @Summary      Registrar venta
// @Description  Descuenta stock y fija el costo de ventas al costo promedio vigente.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateSaleRequest  true  "Venta"
// @Success      201   {object}  dto.SaleResultResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/sales [post]
func (h *SaleHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateSaleRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	input, err := in.ToInput()
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.ledger.CreateSale(c.UserContext(), input)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewSaleResultResponse(out))
}

// GetByID godoc
// @Summary      Obtener venta
// @Tags         sales
// @Produce      json
// @Param        id   path  int  true  "ID de la venta"
// @Success      200  {object}  dto.SaleResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id} [get]
func (h *SaleHandler) GetByID(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "INVALID_ID", "id inválido")
	}
	s, err := h.ledger.GetSale(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewSaleResponse(s))
}

// List godoc
// @Summary      Listar ventas de un producto
// @Tags         sales
// @Produce      json
// @Param        product_id  query  int  true  "ID del producto"
// @Success      200  {object}  dto.ListResponse[dto.SaleResponse]
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/sales [get]
func (h *SaleHandler) List(c *fiber.Ctx) error {
	productID, ok := queryID(c, "product_id")
	if !ok || productID == nil {
		return badRequest(c, "MISSING_PRODUCT_ID", "product_id es requerido")
	}
	list, err := h.ledger.ListSales(c.UserContext(), *productID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.MapList(list, dto.NewSaleResponse))
}

// Delete godoc
// @Summary      Eliminar venta
// @Description  Devuelve las unidades al stock al costo de ventas registrado.
// @Tags         sales
// @Produce      json
// @Param        id   path  int  true  "ID de la venta"
// @Success      200  {object}  dto.DeleteSaleResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/sales/{id} [delete]
func (h *SaleHandler) Delete(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "INVALID_ID", "id inválido")
	}
	out, err := h.ledger.DeleteSale(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewDeleteSaleResponse(out))
}
