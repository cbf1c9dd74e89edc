package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// TextAligns are the paragraph alignments a textbox accepts.
var TextAligns = []string{"left", "center", "right", "justify"}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report JSON field names instead of Go struct names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidColor reports whether c is a hex color such as #1e293b or #fff.
func ValidColor(c string) bool {
	return validate.Var(c, "required,hexcolor") == nil
}

// ValidAlign reports whether a is one of TextAligns.
func ValidAlign(a string) bool {
	return validate.Var(a, "required,oneof="+strings.Join(TextAligns, " ")) == nil
}

// Validate checks the background color.
func (b Background) Validate() error {
	if err := validate.Struct(b); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidBackground, fieldErrors(err))
	}
	return nil
}

// fieldErrors flattens validator errors into "field: tag" pairs.
func fieldErrors(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fe.Namespace()+": "+fe.Tag())
	}
	return strings.Join(parts, ", ")
}
