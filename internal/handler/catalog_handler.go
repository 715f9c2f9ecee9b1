package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

// CatalogHandler serves the reference data the ordering flow depends on:
// vendors, depots, agencies, products and per-depot product variants.
type CatalogHandler struct {
	catalogService service.CatalogService
}

func NewCatalogHandler(catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

func (h *CatalogHandler) RegisterRoutes(router *gin.RouterGroup) {
	read := middleware.RequirePermission("catalog.read")
	write := middleware.RequirePermission("catalog.write")

	vendors := router.Group("/api/vendors")
	{
		vendors.GET("", read, h.ListVendors)
		vendors.POST("", write, h.CreateVendor)
		vendors.PUT("/:id", write, h.UpdateVendor)
		vendors.DELETE("/:id", write, h.DeleteVendor)
	}

	depots := router.Group("/api/depots")
	{
		depots.GET("", read, h.ListDepots)
		depots.POST("", write, h.CreateDepot)
		depots.PUT("/:id", write, h.UpdateDepot)
		depots.DELETE("/:id", write, h.DeleteDepot)
		depots.GET("/:id/variants", read, h.ListVariants)
	}

	agencies := router.Group("/api/agencies")
	{
		agencies.GET("", read, h.ListAgencies)
		agencies.POST("", write, h.CreateAgency)
		agencies.PUT("/:id", write, h.UpdateAgency)
		agencies.DELETE("/:id", write, h.DeleteAgency)
	}

	products := router.Group("/api/products")
	{
		products.GET("", read, h.ListProducts)
		products.POST("", write, h.CreateProduct)
		products.PUT("/:id", write, h.UpdateProduct)
		products.DELETE("/:id", write, h.DeleteProduct)
	}

	variants := router.Group("/api/variants")
	{
		variants.POST("", write, h.CreateVariant)
		variants.PUT("/:id", write, h.UpdateVariant)
		variants.DELETE("/:id", write, h.DeleteVariant)
	}
}

// --- Vendors ---

// ListVendors returns paginated vendors with optional name search
// @Summary      List vendors
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        page    query  int     false  "Page number (default: 1)"
// @Param        limit   query  int     false  "Items per page (default: 20)"
// @Param        search  query  string  false  "Search by name"
// @Success      200  {object}  response.Response
// @Router       /api/vendors [get]
func (h *CatalogHandler) ListVendors(c *gin.Context) {
	params := pagination.Parse(c)
	vendors, total, err := h.catalogService.ListVendors(c.Request.Context(), params.Page, params.Limit, c.Query("search"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, vendors, params.Page, params.Limit, total))
}

// @Summary      Create vendor
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CreateVendorRequest  true  "Vendor payload"
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/vendors [post]
func (h *CatalogHandler) CreateVendor(c *gin.Context) {
	var req service.CreateVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	vendor, err := h.catalogService.CreateVendor(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, vendor))
}

// @Summary      Update vendor
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                       true  "Vendor ID"
// @Param        payload  body  service.UpdateVendorRequest  true  "Update payload"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/vendors/{id} [put]
func (h *CatalogHandler) UpdateVendor(c *gin.Context) {
	var req service.UpdateVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	vendor, err := h.catalogService.UpdateVendor(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, vendor))
}

// @Summary      Delete vendor
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Vendor ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/vendors/{id} [delete]
func (h *CatalogHandler) DeleteVendor(c *gin.Context) {
	if err := h.catalogService.DeleteVendor(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Vendor deleted successfully"}))
}

// --- Depots ---

// @Summary      List depots
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        page    query  int     false  "Page number (default: 1)"
// @Param        limit   query  int     false  "Items per page (default: 20)"
// @Param        search  query  string  false  "Search by name"
// @Success      200  {object}  response.Response
// @Router       /api/depots [get]
func (h *CatalogHandler) ListDepots(c *gin.Context) {
	params := pagination.Parse(c)
	depots, total, err := h.catalogService.ListDepots(c.Request.Context(), params.Page, params.Limit, c.Query("search"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, depots, params.Page, params.Limit, total))
}

// @Summary      Create depot
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CreateDepotRequest  true  "Depot payload"
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/depots [post]
func (h *CatalogHandler) CreateDepot(c *gin.Context) {
	var req service.CreateDepotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	depot, err := h.catalogService.CreateDepot(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, depot))
}

// @Summary      Update depot
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                      true  "Depot ID"
// @Param        payload  body  service.UpdateDepotRequest  true  "Update payload"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/depots/{id} [put]
func (h *CatalogHandler) UpdateDepot(c *gin.Context) {
	var req service.UpdateDepotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	depot, err := h.catalogService.UpdateDepot(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, depot))
}

// @Summary      Delete depot
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Depot ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/depots/{id} [delete]
func (h *CatalogHandler) DeleteDepot(c *gin.Context) {
	if err := h.catalogService.DeleteDepot(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Depot deleted successfully"}))
}

// --- Agencies ---

// @Summary      List agencies
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        page    query  int     false  "Page number (default: 1)"
// @Param        limit   query  int     false  "Items per page (default: 20)"
// @Param        search  query  string  false  "Search by name"
// @Success      200  {object}  response.Response
// @Router       /api/agencies [get]
func (h *CatalogHandler) ListAgencies(c *gin.Context) {
	params := pagination.Parse(c)
	agencies, total, err := h.catalogService.ListAgencies(c.Request.Context(), params.Page, params.Limit, c.Query("search"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, agencies, params.Page, params.Limit, total))
}

// @Summary      Create agency
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CreateAgencyRequest  true  "Agency payload"
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/agencies [post]
func (h *CatalogHandler) CreateAgency(c *gin.Context) {
	var req service.CreateAgencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	agency, err := h.catalogService.CreateAgency(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, agency))
}

// @Summary      Update agency
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                       true  "Agency ID"
// @Param        payload  body  service.UpdateAgencyRequest  true  "Update payload"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/agencies/{id} [put]
func (h *CatalogHandler) UpdateAgency(c *gin.Context) {
	var req service.UpdateAgencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	agency, err := h.catalogService.UpdateAgency(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, agency))
}

// @Summary      Delete agency
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Agency ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/agencies/{id} [delete]
func (h *CatalogHandler) DeleteAgency(c *gin.Context) {
	if err := h.catalogService.DeleteAgency(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Agency deleted successfully"}))
}

// --- Products ---

// @Summary      List products
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        page    query  int     false  "Page number (default: 1)"
// @Param        limit   query  int     false  "Items per page (default: 20)"
// @Param        search  query  string  false  "Search by name or SKU"
// @Success      200  {object}  response.Response
// @Router       /api/products [get]
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	params := pagination.Parse(c)
	products, total, err := h.catalogService.ListProducts(c.Request.Context(), params.Page, params.Limit, c.Query("search"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, products, params.Page, params.Limit, total))
}

// @Summary      Create product
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CreateProductRequest  true  "Product payload"
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/products [post]
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req service.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	product, err := h.catalogService.CreateProduct(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, product))
}

// @Summary      Update product
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                        true  "Product ID"
// @Param        payload  body  service.UpdateProductRequest  true  "Update payload"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/products/{id} [put]
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	var req service.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	product, err := h.catalogService.UpdateProduct(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// @Summary      Delete product
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Product ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/products/{id} [delete]
func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	if err := h.catalogService.DeleteProduct(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Product deleted successfully"}))
}

// --- Depot variants ---

// @Summary      List variants of a depot
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        id     path   string  true   "Depot ID"
// @Param        page   query  int     false  "Page number (default: 1)"
// @Param        limit  query  int     false  "Items per page (default: 20)"
// @Success      200  {object}  response.Response
// @Router       /api/depots/{id}/variants [get]
func (h *CatalogHandler) ListVariants(c *gin.Context) {
	params := pagination.Parse(c)
	variants, total, err := h.catalogService.ListVariants(c.Request.Context(), c.Param("id"), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, variants, params.Page, params.Limit, total))
}

// @Summary      Create depot variant
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CreateVariantRequest  true  "Variant payload"
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/variants [post]
func (h *CatalogHandler) CreateVariant(c *gin.Context) {
	var req service.CreateVariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	variant, err := h.catalogService.CreateVariant(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, variant))
}

// @Summary      Update depot variant
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                        true  "Variant ID"
// @Param        payload  body  service.UpdateVariantRequest  true  "Update payload"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/variants/{id} [put]
func (h *CatalogHandler) UpdateVariant(c *gin.Context) {
	var req service.UpdateVariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	variant, err := h.catalogService.UpdateVariant(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, variant))
}

// @Summary      Delete depot variant
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Variant ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/variants/{id} [delete]
func (h *CatalogHandler) DeleteVariant(c *gin.Context) {
	if err := h.catalogService.DeleteVariant(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Variant deleted successfully"}))
}
