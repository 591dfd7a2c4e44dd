package handler

import (
	"github.com/gofiber/fiber/v2"

	"catalogapi/internal/config"
	"catalogapi/internal/http/middleware"
	"catalogapi/internal/service"
)

// ListProducts returns one page of every product, newest first.
//
// @Summary List products
// @Tags products
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param recordsPerPage query int false "Page size (max 50)" default(10)
// @Success 200 {object} response{result=service.ProductPage}
// @Failure 400 {object} response
// @Router /api/product [get]
func ListProducts(svc service.ProductService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := pagerQuery{Page: 1, RecordsPerPage: service.DefaultRecordsPerPage}
		if err := c.QueryParser(&q); err != nil {
			return writeFailure(c, badRequest("INVALID_PAGER", "page and recordsPerPage must be integers"))
		}
		if err := validate.Struct(q); err != nil {
			return writeFailure(c, badRequest("INVALID_PAGER", validationMessage(err)))
		}

		page, err := svc.List(c.UserContext(), q.Page, q.RecordsPerPage)
		if err != nil {
			return writeFailure(c, err)
		}
		return writeResult(c, fiber.StatusOK, "Products retrieved", page)
	}
}

// ListMyProducts returns every product owned by the authenticated caller.
//
// @Summary List the caller's products
// @Tags products
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response{result=[]model.Product}
// @Failure 400 {object} response
// @Failure 401 {object} errorPayload
// @Router /api/product/mine [get]
func ListMyProducts(svc service.ProductService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := svc.ListByOwner(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return writeFailure(c, err)
		}
		return writeResult(c, fiber.StatusOK, "Products retrieved", items)
	}
}

// GetProduct returns a single product.
//
// @Summary Get a product
// @Tags products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} response{result=model.Product}
// @Failure 404 {object} response
// @Router /api/product/{id} [get]
func GetProduct(svc service.ProductService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := svc.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeFailure(c, err)
		}
		return writeResult(c, fiber.StatusOK, "Product retrieved", p)
	}
}

// CreateProduct moderates and stores a new product with an optional image.
//
// @Summary Create a product
// @Tags products
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param name formData string true "Name"
// @Param price formData number true "Price (0 < price <= 100000)"
// @Param description formData string false "Description"
// @Param categoryName formData string false "Category"
// @Param image formData file false "Product image (jpeg, png, gif, webp)"
// @Success 201 {object} response{result=model.Product}
// @Failure 400 {object} response
// @Failure 413 {object} response
// @Failure 422 {object} response{result=verdictPayload}
// @Failure 503 {object} response
// @Failure 500 {object} response
// @Router /api/product [post]
func CreateProduct(svc service.ProductService, upload config.UploadConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		form, err := parseProductForm(c)
		if err != nil {
			return writeFailure(c, err)
		}
		asset, err := receiveImage(c, upload)
		if err != nil {
			return writeFailure(c, err)
		}

		p, err := svc.Create(c.UserContext(), form.input(middleware.UserID(c)), asset)
		if err != nil {
			return writeFailure(c, err)
		}
		return writeResult(c, fiber.StatusCreated, "Product created", p)
	}
}

// UpdateProduct moderates and applies new fields and an optional replacement image.
//
// @Summary Update a product
// @Tags products
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Param name formData string true "Name"
// @Param price formData number true "Price (0 < price <= 100000)"
// @Param description formData string false "Description"
// @Param categoryName formData string false "Category"
// @Param image formData file false "Replacement image (jpeg, png, gif, webp)"
// @Success 200 {object} response{result=model.Product}
// @Failure 400 {object} response
// @Failure 403 {object} response
// @Failure 404 {object} response
// @Failure 422 {object} response{result=verdictPayload}
// @Failure 503 {object} response
// @Router /api/product/{id} [put]
func UpdateProduct(svc service.ProductService, upload config.UploadConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		form, err := parseProductForm(c)
		if err != nil {
			return writeFailure(c, err)
		}
		asset, err := receiveImage(c, upload)
		if err != nil {
			return writeFailure(c, err)
		}

		p, err := svc.Update(c.UserContext(), c.Params("id"), form.input(middleware.UserID(c)), asset)
		if err != nil {
			return writeFailure(c, err)
		}
		return writeResult(c, fiber.StatusOK, "Product updated", p)
	}
}

// DeleteProduct removes a product and its image.
//
// @Summary Delete a product
// @Tags products
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Success 200 {object} response
// @Failure 403 {object} response
// @Failure 404 {object} response
// @Router /api/product/{id} [delete]
func DeleteProduct(svc service.ProductService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Delete(c.UserContext(), c.Params("id"), middleware.UserID(c)); err != nil {
			return writeFailure(c, err)
		}
		return writeResult(c, fiber.StatusOK, "Product deleted", nil)
	}
}

func parseProductForm(c *fiber.Ctx) (productForm, error) {
	var form productForm
	if err := c.BodyParser(&form); err != nil {
		return form, badRequest("INVALID_BODY", "body must be a form with name and a numeric price")
	}
	if err := validate.Struct(form); err != nil {
		return form, badRequest("VALIDATION_FAILED", validationMessage(err))
	}
	return form, nil
}
