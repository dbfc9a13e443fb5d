package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"example.com/shopping-planner/backend/internal/models"
	"example.com/shopping-planner/backend/internal/notifications"
	"example.com/shopping-planner/backend/internal/repository"
)

type ProductStore interface {
	GetByID(ctx context.Context, id int64, includeInactive bool) (models.Product, error)
	List(ctx context.Context, filter repository.ProductFilter, limit, offset int) ([]models.Product, error)
	Count(ctx context.Context, filter repository.ProductFilter) (int, error)
	Create(ctx context.Context, input repository.ProductInput) (models.Product, error)
	Update(ctx context.Context, id int64, input repository.ProductInput) (models.Product, error)
	Delete(ctx context.Context, id int64) error
}

type CatalogInvalidator interface {
	Invalidate(ctx context.Context) error
}

type ProductHandler struct {
	Products ProductStore
	Cache    CatalogInvalidator
	Notifier *notifications.Hub
	Logger   *slog.Logger
}

// NewProductHandler создает обработчик каталога товаров.
func NewProductHandler(products ProductStore, cache CatalogInvalidator, notifier *notifications.Hub, logger *slog.Logger) *ProductHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &ProductHandler{Products: products, Cache: cache, Notifier: notifier, Logger: logger}
}

type ProductRequest struct {
	ReferenceCode   string          `json:"reference_code" validate:"required,max=64"`
	Name            string          `json:"name" validate:"required,max=200"`
	Description     string          `json:"description" validate:"max=2000"`
	Category        string          `json:"category" validate:"required,max=100"`
	Price           decimal.Decimal `json:"price"`
	Discount        decimal.Decimal `json:"discount"`
	Stock           int             `json:"stock" validate:"gte=0"`
	IsActive        *bool           `json:"is_active"`
	Keywords        []string        `json:"keywords" validate:"omitempty,max=50,dive,max=50"`
	PrimaryImageURL *string         `json:"primary_image_url" validate:"omitempty,url"`
}

type ProductsResponse struct {
	Total    int              `json:"total"`
	Products []models.Product `json:"products"`
}

// List возвращает активные товары каталога.
func (h *ProductHandler) List(c echo.Context) error {
	return h.list(c, false)
}

// AdminList возвращает товары каталога, включая неактивные.
func (h *ProductHandler) AdminList(c echo.Context) error {
	return h.list(c, true)
}

// Get возвращает активный товар по идентификатору.
func (h *ProductHandler) Get(c echo.Context) error {
	id, err := parseProductID(c)
	if err != nil {
		return badRequest(c, "invalid product id")
	}

	product, err := h.Products.GetByID(c.Request().Context(), id, false)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "product not found")
		}
		return serverError(c)
	}

	return c.JSON(http.StatusOK, product)
}

// Create добавляет товар в каталог.
func (h *ProductHandler) Create(c echo.Context) error {
	input, err := bindProduct(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	product, err := h.Products.Create(c.Request().Context(), input)
	if err != nil {
		return h.writeStoreError(c, err)
	}

	h.catalogChanged(c.Request().Context(), "created", product.ID)
	return c.JSON(http.StatusCreated, product)
}

// Update обновляет товар каталога.
func (h *ProductHandler) Update(c echo.Context) error {
	id, err := parseProductID(c)
	if err != nil {
		return badRequest(c, "invalid product id")
	}

	input, err := bindProduct(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	product, err := h.Products.Update(c.Request().Context(), id, input)
	if err != nil {
		return h.writeStoreError(c, err)
	}

	h.catalogChanged(c.Request().Context(), "updated", product.ID)
	return c.JSON(http.StatusOK, product)
}

// Delete удаляет товар из каталога.
func (h *ProductHandler) Delete(c echo.Context) error {
	id, err := parseProductID(c)
	if err != nil {
		return badRequest(c, "invalid product id")
	}

	if err := h.Products.Delete(c.Request().Context(), id); err != nil {
		return h.writeStoreError(c, err)
	}

	h.catalogChanged(c.Request().Context(), "deleted", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *ProductHandler) list(c echo.Context, includeInactive bool) error {
	limit, offset, err := parsePagination(c, 50, 200)
	if err != nil {
		return badRequest(c, err.Error())
	}

	filter := repository.ProductFilter{
		Category:        strings.TrimSpace(c.QueryParam("category")),
		IncludeInactive: includeInactive,
	}

	products, err := h.Products.List(c.Request().Context(), filter, limit, offset)
	if err != nil {
		return serverError(c)
	}

	total, err := h.Products.Count(c.Request().Context(), filter)
	if err != nil {
		return serverError(c)
	}

	return c.JSON(http.StatusOK, ProductsResponse{Total: total, Products: products})
}

func (h *ProductHandler) writeStoreError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return notFound(c, "product not found")
	case errors.Is(err, repository.ErrConflict):
		return conflict(c, "reference code already exists")
	case errors.Is(err, repository.ErrInvalid):
		return badRequest(c, "invalid product")
	default:
		return serverError(c)
	}
}

func (h *ProductHandler) catalogChanged(ctx context.Context, action string, id int64) {
	if h.Cache != nil {
		if err := h.Cache.Invalidate(ctx); err != nil {
			h.Logger.Warn("invalidate catalog cache failed", slog.String("error", err.Error()))
		}
	}

	if h.Notifier != nil {
		h.Notifier.Broadcast(notifications.Event{
			Type: notifications.EventCatalogUpdated,
			Data: map[string]interface{}{"action": action, "product_id": id},
		})
	}
}

func bindProduct(c echo.Context) (repository.ProductInput, error) {
	var req ProductRequest
	if err := bindAndValidate(c, &req); err != nil {
		return repository.ProductInput{}, err
	}

	if req.Price.IsNegative() {
		return repository.ProductInput{}, errors.New("price must not be negative")
	}
	if req.Discount.IsNegative() || req.Discount.GreaterThan(decimal.NewFromInt(100)) {
		return repository.ProductInput{}, errors.New("discount must be between 0 and 100")
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	return repository.ProductInput{
		ReferenceCode:   req.ReferenceCode,
		Name:            req.Name,
		Description:     req.Description,
		Category:        strings.ToLower(strings.TrimSpace(req.Category)),
		Price:           req.Price,
		Discount:        req.Discount,
		Stock:           req.Stock,
		IsActive:        isActive,
		Keywords:        req.Keywords,
		PrimaryImageURL: req.PrimaryImageURL,
	}, nil
}

func parseProductID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid product id")
	}
	return id, nil
}
