// Package layout describes where a recipient's logo and identity text are
// drawn on a branded resource. Coordinates are percentages of the page or
// image so one profile applies to documents of any size.
package layout

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// TemplateRecipient is the recipient key of an admin template that applies to
// every school without a profile of its own.
const TemplateRecipient = "all"

// ErrInvalid is wrapped by every ValidationError.
var ErrInvalid = errors.New("invalid layout")

// LogoBlock positions the recipient logo. Width is a percentage of the page
// width; height follows the logo's aspect ratio.
type LogoBlock struct {
	X       float64 `json:"x" validate:"gte=0,lte=100"`
	Y       float64 `json:"y" validate:"gte=0,lte=100"`
	Width   float64 `json:"width" validate:"gte=5,lte=50"`
	Opacity float64 `json:"opacity" validate:"gte=0.1,lte=1"`
}

// IdentityText positions the recipient display name.
type IdentityText struct {
	X        float64 `json:"x" validate:"gte=0,lte=100"`
	Y        float64 `json:"y" validate:"gte=0,lte=100"`
	FontSize float64 `json:"font_size" validate:"gte=8,lte=40"`
	Opacity  float64 `json:"opacity" validate:"gte=0.1,lte=1"`
}

// ContactText positions the recipient contact line.
type ContactText struct {
	X        float64 `json:"x" validate:"gte=0,lte=100"`
	Y        float64 `json:"y" validate:"gte=0,lte=100"`
	FontSize float64 `json:"font_size" validate:"gte=8,lte=20"`
	Opacity  float64 `json:"opacity" validate:"gte=0.1,lte=1"`
}

// TextBlock is the range-free shape compositors draw from.
type TextBlock struct {
	X, Y     float64
	FontSize float64
	Opacity  float64
}

func (t IdentityText) Block() TextBlock {
	return TextBlock{X: t.X, Y: t.Y, FontSize: t.FontSize, Opacity: t.Opacity}
}

func (t ContactText) Block() TextBlock {
	return TextBlock{X: t.X, Y: t.Y, FontSize: t.FontSize, Opacity: t.Opacity}
}

// Profile is the branding configuration of one (recipient, resource) pair.
type Profile struct {
	Logo     LogoBlock    `json:"logo"`
	Identity IdentityText `json:"identity"`
	Contact  ContactText  `json:"contact"`
}

// Default returns the profile used when no profile has been saved.
func Default() Profile {
	return Profile{
		Logo:     LogoBlock{X: 50, Y: 10, Width: 20, Opacity: 0.7},
		Identity: IdentityText{X: 50, Y: 20, FontSize: 16, Opacity: 0.9},
		Contact:  ContactText{X: 50, Y: 90, FontSize: 12, Opacity: 0.8},
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// FieldError is one out-of-range value.
type FieldError struct {
	Field string  `json:"field"`
	Value float64 `json:"value"`
	Rule  string  `json:"rule"`
}

// ValidationError lists every field of a profile that is out of range.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = fmt.Sprintf("%s=%g violates %s", f.Field, f.Value, f.Rule)
	}
	return "invalid layout: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalid }

// Validate rejects any field outside its declared range. Values are never
// clamped.
func (p Profile) Validate() error {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	out := &ValidationError{}
	for _, fe := range verrs {
		field := fe.Namespace()
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[i+1:]
		}
		v, _ := fe.Value().(float64)
		out.Fields = append(out.Fields, FieldError{
			Field: field,
			Value: v,
			Rule:  fe.Tag() + "=" + fe.Param(),
		})
	}
	return out
}
