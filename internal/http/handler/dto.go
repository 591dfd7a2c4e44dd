package handler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"catalogapi/internal/service"
)

var validate = validator.New()

// productForm is the multipart body of create and update requests. The image travels
// in the file field "image".
type productForm struct {
	Name         string  `form:"name" validate:"required"`
	Price        float64 `form:"price" validate:"gt=0,lte=100000"`
	Description  string  `form:"description"`
	CategoryName string  `form:"categoryName"`
}

func (f productForm) input(userID string) service.ProductInput {
	return service.ProductInput{
		Name:         f.Name,
		Price:        f.Price,
		Description:  f.Description,
		CategoryName: f.CategoryName,
		UserID:       userID,
	}
}

// pagerQuery holds the paging parameters of list requests.
type pagerQuery struct {
	Page           int `query:"page" validate:"min=1"`
	RecordsPerPage int `query:"recordsPerPage" validate:"min=1,max=50"`
}

// validationMessage turns validator errors into one client-facing line.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s is %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
