package ledgerapi

import (
	"github.com/labstack/echo/v4"
	"github.com/talkincode/toughledger/internal/domain"
	"github.com/talkincode/toughledger/internal/validation"
	"github.com/talkincode/toughledger/internal/webserver"
)

type productBody struct {
	Name  string `json:"name" validate:"required,max=255"`
	Price int64  `json:"price" validate:"gt=0"` // minor currency units
}

func (b productBody) input() domain.ProductInput {
	return domain.ProductInput{Name: b.Name, Price: b.Price}
}

type (
	listProductsRequest  = validation.Request[validation.None, validation.PageQuery, validation.None]
	productIDRequest     = validation.Request[validation.IDParams, validation.None, validation.None]
	createProductRequest = validation.Request[validation.None, validation.None, productBody]
	updateProductRequest = validation.Request[validation.IDParams, validation.None, productBody]
)

// registerProductRoutes registers product CRUD endpoints, all behind authentication
func (h *handlers) registerProductRoutes(s *webserver.Server) {
	authn := webserver.RequireAuthentication(h.Sessions)

	s.ApiGET("/products", validation.Handle(h.Gate, h.listProducts), authn)
	s.ApiGET("/products/:id", validation.Handle(h.Gate, h.getProduct), authn)
	s.ApiPOST("/products", validation.Handle(h.Gate, h.createProduct), authn)
	s.ApiPUT("/products/:id", validation.Handle(h.Gate, h.updateProduct), authn)
	s.ApiDELETE("/products/:id", validation.Handle(h.Gate, h.deleteProduct), authn)
}

// @Summary list products by name
// @Tags Products
// @Security BearerAuth
// @Param limit query int false "page size (1-1000), requires offset"
// @Param offset query int false "rows to skip, requires limit"
// @Success 200 {object} domain.Page[domain.Product]
// @Router /api/products [get]
func (h *handlers) listProducts(c echo.Context, req *listProductsRequest) error {
	page, err := h.Products.GetAll(c.Request().Context(), req.Query.Window())
	if err != nil {
		return err
	}
	return ok(c, page)
}

// @Summary get a product
// @Tags Products
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Success 200 {object} domain.Product
// @Router /api/products/{id} [get]
func (h *handlers) getProduct(c echo.Context, req *productIDRequest) error {
	product, err := h.Products.GetByID(c.Request().Context(), req.Params.ID)
	if err != nil {
		return err
	}
	return ok(c, product)
}

// @Summary create a product
// @Tags Products
// @Security BearerAuth
// @Param body body productBody true "product"
// @Success 201 {object} domain.Product
// @Router /api/products [post]
func (h *handlers) createProduct(c echo.Context, req *createProductRequest) error {
	product, err := h.Products.Create(c.Request().Context(), req.Body.input())
	if err != nil {
		return err
	}
	return created(c, product)
}

// @Summary update a product
// @Tags Products
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Param body body productBody true "product"
// @Success 200 {object} domain.Product
// @Router /api/products/{id} [put]
func (h *handlers) updateProduct(c echo.Context, req *updateProductRequest) error {
	product, err := h.Products.UpdateByID(c.Request().Context(), req.Params.ID, req.Body.input())
	if err != nil {
		return err
	}
	return ok(c, product)
}

// @Summary delete a product and its transactions
// @Tags Products
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Success 204
// @Router /api/products/{id} [delete]
func (h *handlers) deleteProduct(c echo.Context, req *productIDRequest) error {
	if err := h.Products.DeleteByID(c.Request().Context(), req.Params.ID); err != nil {
		return err
	}
	return noContent(c)
}
