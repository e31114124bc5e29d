package handler

import (
	"context"

	consignmentapp "github.com/erp/consignment/internal/application/consignment"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MovementLister reads a product's stock movement log
type MovementLister interface {
	ListMovements(ctx context.Context, productID uuid.UUID, filter consignmentapp.MovementFilter) ([]consignmentapp.MovementResponse, int64, error)
}

// ProductHandler exposes the stock movement audit trail of a product
type ProductHandler struct {
	BaseHandler
	movements MovementLister
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(movements MovementLister) *ProductHandler {
	return &ProductHandler{movements: movements}
}

// ListMovements godoc
// @Summary      List a product's stock movements
// @Description  Newest first. Every consignment send, settlement return and final return is logged here.
// @Tags         products
// @Produce      json
// @Param        id        path  string true  "Product ID" format(uuid)
// @Param        page      query int    false "Page number" minimum(1) default(1)
// @Param        page_size query int    false "Page size" minimum(1) maximum(200) default(20)
// @Success      200 {object} dto.Response{data=[]consignmentapp.MovementResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /products/{id}/movements [get]
func (h *ProductHandler) ListMovements(c *gin.Context) {
	productID, ok := h.parseUUIDParam(c, "id", "product")
	if !ok {
		return
	}

	var filter consignmentapp.MovementFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.ValidationError(c, err)
		return
	}
	if filter.Page == 0 {
		filter.Page = 1
	}
	if filter.PageSize == 0 {
		filter.PageSize = 20
	}

	movements, total, err := h.movements.ListMovements(c.Request.Context(), productID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, movements, total, filter.Page, filter.PageSize)
}

