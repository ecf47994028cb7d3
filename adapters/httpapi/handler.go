package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/codewandler/cart-go/cart"
	"github.com/codewandler/cart-go/core/es"
	"github.com/codewandler/cart-go/ports/pricing"
	"github.com/codewandler/cart-go/ports/users"
)

type (
	openCartRequest struct {
		CartID   string `json:"cart_id,omitempty"`
		ClientID string `json:"client_id"`
	}

	addProductItemRequest struct {
		ProductID string `json:"product_id"`
		Quantity  int64  `json:"quantity"`
	}

	removeProductItemRequest struct {
		ProductID string `json:"product_id" query:"product_id"`
		UnitPrice int64  `json:"unit_price" query:"unit_price"`
		Quantity  int64  `json:"quantity" query:"quantity"`
	}

	errorResponse struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
)

// Handler exposes the cart service as a REST resource.
type Handler struct {
	svc *cart.Service
	log *slog.Logger
}

func NewHandler(log *slog.Logger, svc *cart.Service) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, log: log.With(slog.String("handler", "cart"))}
}

func (h *Handler) Register(e *echo.Echo) {
	g := e.Group("/api/carts")
	g.POST("", h.openCart)
	g.GET("/:id", h.getCart)
	g.POST("/:id/product-items", h.addProductItem)
	g.DELETE("/:id/product-items", h.removeProductItem)
	g.POST("/:id/confirm", h.confirmCart)
	g.POST("/:id/cancel", h.cancelCart)
}

func (h *Handler) openCart(c echo.Context) error {
	var req openCartRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, echo.ErrBadRequest)
	}
	if req.ClientID == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{
			Code:    "invalid-request",
			Message: "client_id is required",
		})
	}

	id, rev, err := h.svc.Open(c.Request().Context(), req.CartID, req.ClientID)
	if err != nil {
		return respondError(c, err)
	}

	c.Response().Header().Set("Location", "/api/carts/"+id)
	c.Response().Header().Set("ETag", rev.ETag())
	return c.JSON(http.StatusCreated, map[string]string{"id": id})
}

func (h *Handler) getCart(c echo.Context) error {
	held, err := es.RevisionFromIfNoneMatch(c.Request().Header.Get("If-None-Match"))
	if err != nil {
		return respondError(c, err)
	}

	state, rev, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}

	c.Response().Header().Set("ETag", rev.ETag())
	if held != nil && *held == rev {
		return c.NoContent(http.StatusNotModified)
	}
	return c.JSON(http.StatusOK, state)
}

func (h *Handler) addProductItem(c echo.Context) error {
	var req addProductItemRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, echo.ErrBadRequest)
	}

	return h.handleWrite(c, func(expected es.ExpectedRevision) (es.Revision, error) {
		return h.svc.AddProductItem(c.Request().Context(), c.Param("id"), expected, cart.ProductItem{
			ProductID: req.ProductID,
			Quantity:  req.Quantity,
		})
	})
}

func (h *Handler) removeProductItem(c echo.Context) error {
	var req removeProductItemRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, echo.ErrBadRequest)
	}

	return h.handleWrite(c, func(expected es.ExpectedRevision) (es.Revision, error) {
		return h.svc.RemoveProductItem(c.Request().Context(), c.Param("id"), expected, cart.PricedProductItem{
			ProductID: req.ProductID,
			UnitPrice: req.UnitPrice,
			Quantity:  req.Quantity,
		})
	})
}

func (h *Handler) confirmCart(c echo.Context) error {
	return h.handleWrite(c, func(expected es.ExpectedRevision) (es.Revision, error) {
		return h.svc.Confirm(c.Request().Context(), c.Param("id"), expected)
	})
}

func (h *Handler) cancelCart(c echo.Context) error {
	return h.handleWrite(c, func(expected es.ExpectedRevision) (es.Revision, error) {
		return h.svc.Cancel(c.Request().Context(), c.Param("id"), expected)
	})
}

// handleWrite runs one conditional write: precondition from If-Match,
// resulting revision back out as the ETag.
func (h *Handler) handleWrite(c echo.Context, do func(es.ExpectedRevision) (es.Revision, error)) error {
	expected, err := es.ExpectedFromIfMatch(c.Request().Header.Get("If-Match"))
	if err != nil {
		return respondError(c, err)
	}

	rev, err := do(expected)
	if err != nil {
		return respondError(c, err)
	}

	c.Response().Header().Set("ETag", rev.ETag())
	return c.NoContent(http.StatusOK)
}

func respondError(c echo.Context, err error) error {
	status, code := mapError(err)
	msg := err.Error()
	if code == "internal" {
		// internal details stay in the logs
		msg = "internal error"
	}
	return c.JSON(status, errorResponse{Code: code, Message: msg})
}

// mapError resolves an error from the service into a status code and a
// stable machine-readable code string.
func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, users.ErrUserNotFound):
		return http.StatusBadRequest, "user-not-found"
	case errors.Is(err, pricing.ErrProductUnavailable):
		return http.StatusBadRequest, "product-unavailable"
	case errors.Is(err, echo.ErrBadRequest):
		return http.StatusBadRequest, "invalid-request"
	}

	code := cart.ErrorCode(err)
	switch code {
	case "cart-not-found", "product-item-not-found":
		return http.StatusNotFound, code
	case "cart-already-exists", "cart-not-open", "cart-empty":
		return http.StatusConflict, code
	case "concurrency-conflict":
		return http.StatusPreconditionFailed, code
	case "invalid-product-item", "invalid-revision-format":
		return http.StatusBadRequest, code
	default:
		return http.StatusInternalServerError, "internal"
	}
}
