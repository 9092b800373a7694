package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/commerce-service/internal/api/dto"
	"github.com/spec-kit/commerce-service/internal/domain"
	"github.com/spec-kit/commerce-service/internal/repository"
	"github.com/spec-kit/commerce-service/internal/service"
	apperrors "github.com/spec-kit/commerce-service/pkg/util"
)

// OrdersHandler exposes order placement, the customer order views and
// the admin fulfillment surface.
type OrdersHandler struct {
	orders *service.OrderService
}

// NewOrdersHandler constructs handler.
func NewOrdersHandler(orders *service.OrderService) *OrdersHandler {
	return &OrdersHandler{orders: orders}
}

// Create handles POST /orders.
func (h *OrdersHandler) Create(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	input := service.OrderCreateInput{
		ShippingAddress: domain.ShippingAddress{
			Recipient:  req.ShippingAddress.Recipient,
			Street:     req.ShippingAddress.Street,
			City:       req.ShippingAddress.City,
			State:      req.ShippingAddress.State,
			PostalCode: req.ShippingAddress.PostalCode,
			Country:    req.ShippingAddress.Country,
			Phone:      req.ShippingAddress.Phone,
		},
		PaymentMethod: req.PaymentMethod,
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, service.OrderLineInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}
	order, err := h.orders.CreateOrder(c.Context(), principal.User.ID, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewOrderResponse(order)})
}

// ListMine handles GET /orders/myorders.
func (h *OrdersHandler) ListMine(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	limit, offset := pageParams(c)
	orders, err := h.orders.ListUserOrders(c.Context(), principal.User.ID, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": orderResponses(orders),
		"meta": fiber.Map{"limit": limit, "offset": offset, "count": len(orders)},
	})
}

// Get handles GET /orders/:id. Customers only see their own orders.
func (h *OrdersHandler) Get(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	order, err := h.orders.GetOrder(c.Context(), principal.User.ID, principal.Role, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewOrderResponse(order)})
}

// Pay handles PUT /orders/:id/pay.
func (h *OrdersHandler) Pay(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.PayOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	result := domain.PaymentResult{
		Provider:  req.Provider,
		Reference: req.Reference,
		Status:    req.Status,
		RawEmail:  req.Email,
	}
	order, err := h.orders.ConfirmPayment(c.Context(), principal.User.ID, c.Params("id"), result)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewOrderResponse(order)})
}

// Cancel handles PUT /orders/:id/cancel.
func (h *OrdersHandler) Cancel(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	order, err := h.orders.CancelOrder(c.Context(), principal.User.ID, principal.Role, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewOrderResponse(order)})
}

// List handles GET /orders (admin).
func (h *OrdersHandler) List(c *fiber.Ctx) error {
	limit, offset := pageParams(c)
	filter := repository.OrderFilter{Limit: limit, Offset: offset}
	if v := strings.TrimSpace(c.Query("user_id")); v != "" {
		filter.UserID = &v
	}
	if v := strings.TrimSpace(c.Query("status")); v != "" {
		status, err := domain.ParseOrderStatus(v)
		if err != nil {
			return apperrors.NewValidationError("unknown status filter", nil)
		}
		filter.Status = &status
	}
	orders, stats, err := h.orders.ListOrders(c.Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": orderResponses(orders),
		"meta": fiber.Map{"limit": limit, "offset": offset, "count": len(orders)},
		"stats": dto.OrderStatsResponse{
			TotalOrders:   stats.TotalOrders,
			RevenueCents:  stats.RevenueCents,
			CountByStatus: stats.CountByStatus,
		},
	})
}

// UpdateStatus handles PUT /orders/:id/status (admin).
func (h *OrdersHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.UpdateOrderStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	order, err := h.orders.UpdateStatus(c.Context(), c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewOrderResponse(order)})
}

func orderResponses(orders []domain.Order) []dto.OrderResponse {
	items := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		items = append(items, dto.NewOrderResponse(&orders[i]))
	}
	return items
}

func pageParams(c *fiber.Ctx) (int, int) {
	limit := c.QueryInt("limit", 20)
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
