package handler

import (
	"context"
	"fmt"
	"net/http"

	consignmentapp "github.com/erp/consignment/internal/application/consignment"
	"github.com/erp/consignment/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const maxIdempotencyKeyLength = 128

// ConsignmentService is the application API the handler drives
type ConsignmentService interface {
	Create(ctx context.Context, req consignmentapp.CreateConsignmentRequest) (*consignmentapp.ConsignmentResponse, error)
	AddLines(ctx context.Context, id uuid.UUID, req consignmentapp.AddLinesRequest) (*consignmentapp.ConsignmentResponse, error)
	RegisterSettlement(ctx context.Context, id uuid.UUID, req consignmentapp.RegisterSettlementRequest) (*consignmentapp.ConsignmentResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*consignmentapp.ConsignmentResponse, error)
	List(ctx context.Context, filter consignmentapp.ListFilter) ([]consignmentapp.ConsignmentListItemResponse, int64, error)
	Summary(ctx context.Context) (*consignmentapp.SummaryResponse, error)
}

// StatementExporter renders a consignment's settlement statement
type StatementExporter interface {
	Export(ctx context.Context, id uuid.UUID) (*consignmentapp.Statement, error)
}

// ConsignmentHandler handles consignment API endpoints
type ConsignmentHandler struct {
	BaseHandler
	service    ConsignmentService
	statements StatementExporter
}

// NewConsignmentHandler creates a new ConsignmentHandler
func NewConsignmentHandler(service ConsignmentService, statements StatementExporter) *ConsignmentHandler {
	return &ConsignmentHandler{
		service:    service,
		statements: statements,
	}
}

// CreateConsignmentRequest is the request body for handing goods to a reseller
type CreateConsignmentRequest struct {
	CustomerID string            `json:"customer_id" binding:"required,uuid"`
	Lines      []ConsignmentLine `json:"lines" binding:"required,min=1,dive"`
	Notes      string            `json:"notes" binding:"max=2000"`
}

// ConsignmentLine is one product line of a create or add-lines request.
// Omitted prices and commissions fall back to the product and customer defaults.
type ConsignmentLine struct {
	ProductID         string   `json:"product_id" binding:"required,uuid"`
	Quantity          int      `json:"quantity" binding:"required,min=1"`
	UnitPrice         *float64 `json:"unit_price" binding:"omitempty,gte=0"`
	CommissionPercent *float64 `json:"commission_percent" binding:"omitempty,gte=0,lte=100"`
}

// AddLinesRequest is the request body for appending lines before the first settlement
type AddLinesRequest struct {
	Lines []ConsignmentLine `json:"lines" binding:"required,min=1,dive"`
}

// SettlementRequest is the request body of a settlement ("acerto")
type SettlementRequest struct {
	Lines    []SettlementLine `json:"lines" binding:"dive"`
	Finalize bool             `json:"finalize"`
}

// SettlementLine carries absolute sold and returned counts for one line
type SettlementLine struct {
	LineID   string `json:"line_id" binding:"required,uuid"`
	Sold     int    `json:"sold" binding:"min=0"`
	Returned int    `json:"returned" binding:"min=0"`
}

// ListConsignmentsQuery holds list filters and paging
type ListConsignmentsQuery struct {
	Status     string `form:"status" binding:"omitempty,oneof=OPEN PARTIAL CLOSED"`
	CustomerID string `form:"customer_id" binding:"omitempty,uuid"`
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string `form:"order_by" binding:"omitempty,oneof=sent_at closed_at total_sold_value customer_name"`
	OrderDir   string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// Create godoc
// @Summary      Create a consignment
// @Description  Hand products to a reseller. Stock leaves the catalog immediately; omitted prices and commissions come from the product and customer.
// @Tags         consignments
// @Accept       json
// @Produce      json
// @Param        request body CreateConsignmentRequest true "Consignment to create"
// @Success      201 {object} dto.Response{data=consignmentapp.ConsignmentResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /consignments [post]
func (h *ConsignmentHandler) Create(c *gin.Context) {
	var req CreateConsignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	lines, err := toLineInputs(req.Lines)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.Create(c.Request.Context(), consignmentapp.CreateConsignmentRequest{
		CustomerID: uuid.MustParse(req.CustomerID),
		Lines:      lines,
		Notes:      req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Header("Location", "/api/v1/consignments/"+result.ID.String())
	h.Created(c, result)
}

// List godoc
// @Summary      List consignments
// @Tags         consignments
// @Produce      json
// @Param        status      query string false "Status filter" Enums(OPEN, PARTIAL, CLOSED)
// @Param        customer_id query string false "Reseller ID" format(uuid)
// @Param        page        query int    false "Page number" minimum(1) default(1)
// @Param        page_size   query int    false "Page size" minimum(1) maximum(100) default(20)
// @Param        order_by    query string false "Sort column" Enums(sent_at, closed_at, total_sold_value, customer_name)
// @Param        order_dir   query string false "Sort direction" Enums(asc, desc)
// @Success      200 {object} dto.Response{data=[]consignmentapp.ConsignmentListItemResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /consignments [get]
func (h *ConsignmentHandler) List(c *gin.Context) {
	var query ListConsignmentsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.ValidationError(c, err)
		return
	}

	filter := consignmentapp.ListFilter{
		Page:     query.Page,
		PageSize: query.PageSize,
		OrderBy:  query.OrderBy,
		OrderDir: query.OrderDir,
	}
	if filter.Page == 0 {
		filter.Page = 1
	}
	if filter.PageSize == 0 {
		filter.PageSize = 20
	}
	if query.Status != "" {
		filter.Status = &query.Status
	}
	if query.CustomerID != "" {
		customerID := uuid.MustParse(query.CustomerID)
		filter.CustomerID = &customerID
	}

	items, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// Summary godoc
// @Summary      Consignment dashboard figures
// @Tags         consignments
// @Produce      json
// @Success      200 {object} dto.Response{data=consignmentapp.SummaryResponse}
// @Router       /consignments/summary [get]
func (h *ConsignmentHandler) Summary(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// GetByID godoc
// @Summary      Get a consignment
// @Tags         consignments
// @Produce      json
// @Param        id path string true "Consignment ID" format(uuid)
// @Success      200 {object} dto.Response{data=consignmentapp.ConsignmentResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /consignments/{id} [get]
func (h *ConsignmentHandler) GetByID(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id", "consignment")
	if !ok {
		return
	}

	result, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// AddLines godoc
// @Summary      Add lines to an open consignment
// @Description  Only allowed before the first settlement.
// @Tags         consignments
// @Accept       json
// @Produce      json
// @Param        id      path string          true "Consignment ID" format(uuid)
// @Param        request body AddLinesRequest true "Lines to append"
// @Success      200 {object} dto.Response{data=consignmentapp.ConsignmentResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /consignments/{id}/lines [post]
func (h *ConsignmentHandler) AddLines(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id", "consignment")
	if !ok {
		return
	}

	var req AddLinesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	lines, err := toLineInputs(req.Lines)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.AddLines(c.Request.Context(), id, consignmentapp.AddLinesRequest{Lines: lines})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// RegisterSettlement godoc
// @Summary      Register a settlement
// @Description  Reports absolute sold and returned counts per line. Returned units go back to stock; finalize closes the consignment and returns everything unaccounted for.
// @Description  An Idempotency-Key header makes a resubmission return the current state instead of applying the batch twice.
// @Tags         consignments
// @Accept       json
// @Produce      json
// @Param        id              path   string            true  "Consignment ID" format(uuid)
// @Param        Idempotency-Key header string            false "Client key for safe retries" maxlength(128)
// @Param        request         body   SettlementRequest true  "Settlement batch"
// @Success      200 {object} dto.Response{data=consignmentapp.ConsignmentResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /consignments/{id}/settlements [post]
func (h *ConsignmentHandler) RegisterSettlement(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id", "consignment")
	if !ok {
		return
	}

	idempotencyKey := c.GetHeader(middleware.IdempotencyKeyHeader)
	if len(idempotencyKey) > maxIdempotencyKeyLength {
		h.BadRequest(c, fmt.Sprintf("Idempotency-Key must be at most %d characters", maxIdempotencyKeyLength))
		return
	}

	var req SettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	appReq := consignmentapp.RegisterSettlementRequest{
		Lines:          make([]consignmentapp.SettlementLineInput, 0, len(req.Lines)),
		Finalize:       req.Finalize,
		IdempotencyKey: idempotencyKey,
	}
	for _, line := range req.Lines {
		appReq.Lines = append(appReq.Lines, consignmentapp.SettlementLineInput{
			LineID:   uuid.MustParse(line.LineID),
			Sold:     line.Sold,
			Returned: line.Returned,
		})
	}

	result, err := h.service.RegisterSettlement(c.Request.Context(), id, appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// DownloadStatement godoc
// @Summary      Download the settlement statement
// @Tags         consignments
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        id path string true "Consignment ID" format(uuid)
// @Success      200 {file} binary
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /consignments/{id}/statement.xlsx [get]
func (h *ConsignmentHandler) DownloadStatement(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id", "consignment")
	if !ok {
		return
	}

	statement, err := h.statements.Export(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, statement.Filename))
	c.Data(http.StatusOK, statement.ContentType, statement.Data)
}

func toLineInputs(lines []ConsignmentLine) ([]consignmentapp.CreateLineInput, error) {
	inputs := make([]consignmentapp.CreateLineInput, 0, len(lines))
	for i, line := range lines {
		productID, err := uuid.Parse(line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid product ID format", i+1)
		}
		input := consignmentapp.CreateLineInput{
			ProductID: productID,
			Quantity:  line.Quantity,
		}
		if line.UnitPrice != nil {
			price := decimal.NewFromFloat(*line.UnitPrice)
			input.UnitPrice = &price
		}
		if line.CommissionPercent != nil {
			pct := decimal.NewFromFloat(*line.CommissionPercent)
			input.CommissionPercent = &pct
		}
		inputs = append(inputs, input)
	}
	return inputs, nil
}
