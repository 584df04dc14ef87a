package handlers

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/piala/internal/config"
	"github.com/example/piala/internal/models"
	"github.com/example/piala/internal/services"
	"github.com/example/piala/internal/utils"
)

// OrderHandler manages merchant-facing order endpoints.
type OrderHandler struct {
	db       *gorm.DB
	cfg      *config.Config
	links    *services.LinkService
	telegram *services.TelegramService
}

func NewOrderHandler(db *gorm.DB, cfg *config.Config, telegram *services.TelegramService) *OrderHandler {
	return &OrderHandler{
		db:       db,
		cfg:      cfg,
		links:    services.NewLinkService(cfg),
		telegram: telegram,
	}
}

type createOrderRequest struct {
	ProductName string `json:"product_name"`
	Price       int64  `json:"price"`
	Quantity    int    `json:"quantity"`
}

// CreateOrder registers a new pending order and returns its checkout URL.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if strings.TrimSpace(req.ProductName) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "product_name is required")
	}
	if req.Price <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "invalid price")
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	order := models.Order{
		ProductName: strings.TrimSpace(req.ProductName),
		Price:       req.Price,
		Quantity:    req.Quantity,
		Amount:      req.Price * int64(req.Quantity),
		Status:      models.OrderStatusPending,
	}

	if err := h.db.Create(&order).Error; err != nil {
		return err
	}

	if h.telegram != nil {
		go func() {
			if err := h.telegram.NotifyNewOrder(services.NewOrderNotification{
				OrderID:  order.ID.String(),
				Product:  order.ProductName,
				Quantity: order.Quantity,
				Amount:   order.Amount,
				Currency: "UZS",
			}); err != nil {
				log.Printf("[Order] Telegram new order notification failed: %v", err)
			}
		}()
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"order":   order,
		"pay_url": h.links.BuildCheckoutURL(order.ID.String(), order.Amount*h.cfg.PaymeAmountScale),
	})
}

// GetOrder returns a single order by id.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid order id")
	}

	var order models.Order
	if err := h.db.Where("id = ?", id).First(&order).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return err
	}

	return c.JSON(order)
}

// ListOrders returns orders, newest first, optionally filtered by status.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Order{})

	if status := strings.TrimSpace(c.Query("status")); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var orders []models.Order
	if err := query.
		Order("created_at desc").
		Limit(pg.Limit).
		Offset(pg.Offset).
		Find(&orders).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    orders,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// ListTransactions returns orders with a bound provider transaction.
func (h *OrderHandler) ListTransactions(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Order{}).Where("transaction_id <> ''")

	if status := strings.TrimSpace(c.Query("status")); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var orders []models.Order
	if err := query.
		Order("create_time desc").
		Limit(pg.Limit).
		Offset(pg.Offset).
		Find(&orders).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    orders,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

type checkoutRequest struct {
	OrderID string `json:"order_id"`
}

// Checkout builds a provider checkout URL for an existing order.
func (h *OrderHandler) Checkout(c *fiber.Ctx) error {
	var req checkoutRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	id, err := uuid.Parse(req.OrderID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid order id")
	}

	var order models.Order
	if err := h.db.Where("id = ?", id).First(&order).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return err
	}

	return c.JSON(fiber.Map{
		"url":      h.links.BuildCheckoutURL(order.ID.String(), order.Amount*h.cfg.PaymeAmountScale),
		"order_id": order.ID,
	})
}
