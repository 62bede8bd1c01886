package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"gator-forum/internal/api"
	"gator-forum/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// registerValidators adds the forum's tags to gin's validator and makes
// errors name fields by their json key.
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			for _, tag := range []string{"json", "form", "uri"} {
				if name := strings.Split(field.Tag.Get(tag), ",")[0]; name != "" && name != "-" {
					return name
				}
			}
			return field.Name
		})
		_ = v.RegisterValidation("community", func(fl validator.FieldLevel) bool {
			return models.ValidSubredditName(models.NormalizeSubredditName(fl.Field().String()))
		})
	})
}

// bindError writes a 400 describing the first binding failure.
func bindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		api.BadRequest(c, "Invalid request body")
		return
	}
	api.BadRequest(c, describe(verrs[0]))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "url":
		return fmt.Sprintf("%s must be a valid URL", fe.Field())
	case "uuid":
		return fmt.Sprintf("%s must be a valid id", fe.Field())
	case "community":
		return "Community names must be 3-21 characters of letters, numbers or underscores"
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

// pageQuery binds limit/offset; out-of-range limits are clamped by models.Page.
type pageQuery struct {
	Limit  int `form:"limit" binding:"min=0"`
	Offset int `form:"offset" binding:"min=0"`
}

func (q pageQuery) page() models.Page {
	return models.Page{Limit: q.Limit, Offset: q.Offset}
}

// communityURI binds the :name path parameter.
type communityURI struct {
	Name string `uri:"name" binding:"required,community"`
}
