package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"petfoodstore/models"
	"petfoodstore/store"
)

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return 0, false
	}
	return uint(id), true
}

func (h *Handler) ListProducts(c *gin.Context) {
	f := store.ProductFilter{
		Category:   c.Query("category"),
		PetType:    models.PetType(c.Query("petType")),
		ActiveOnly: true,
	}
	products, err := h.Catalog.ListProducts(c.Request.Context(), f)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	p, err := h.Catalog.FindProductByID(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

type productBody struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Category    string          `json:"category"`
	Brand       string          `json:"brand"`
	ImageURL    string          `json:"imageUrl"`
	PetType     models.PetType  `json:"petType"`
}

func (h *Handler) CreateProduct(c *gin.Context) {
	var body productBody
	if err := c.BindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read body"})
		return
	}
	if body.Name == "" || body.Price.IsNegative() || body.Quantity < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required; price and quantity must not be negative"})
		return
	}

	p := models.Product{
		Name:        body.Name,
		Description: body.Description,
		Price:       body.Price,
		Quantity:    body.Quantity,
		Category:    body.Category,
		Brand:       body.Brand,
		ImageURL:    body.ImageURL,
		PetType:     body.PetType,
		Active:      true,
	}
	if err := h.Catalog.CreateProduct(c.Request.Context(), &p); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	p, err := h.Catalog.FindProductByID(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}

	var body productBody
	if err := c.BindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read body"})
		return
	}

	p.Name = body.Name
	p.Description = body.Description
	p.Price = body.Price
	p.Quantity = body.Quantity
	p.Category = body.Category
	p.Brand = body.Brand
	p.ImageURL = body.ImageURL
	p.PetType = body.PetType

	if err := h.Catalog.SaveProduct(c.Request.Context(), p); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// DeactivateProduct hides a product from the catalog; rows are never deleted
// because order items reference them.
func (h *Handler) DeactivateProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	p, err := h.Catalog.FindProductByID(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	p.Active = false
	if err := h.Catalog.SaveProduct(c.Request.Context(), p); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deactivated"})
}
