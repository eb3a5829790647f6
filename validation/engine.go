package validation

import (
	"errors"
	"fmt"
	"strconv"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/MrEthical07/goConsole/catalog"
)

const tagNoControl = "nocontrol"

// Limits holds the numeric bounds used by the entity schemas.
type Limits struct {
	RowMin               int     `mapstructure:"row_min" yaml:"row_min"`
	RowMax               int     `mapstructure:"row_max" yaml:"row_max"`
	PriceMin             float64 `mapstructure:"price_min" yaml:"price_min"`
	PriceMax             float64 `mapstructure:"price_max" yaml:"price_max"`
	StringMinLength      int     `mapstructure:"string_min_length" yaml:"string_min_length"`
	StringMaxLength      int     `mapstructure:"string_max_length" yaml:"string_max_length"`
	TextMinLength        int     `mapstructure:"text_min_length" yaml:"text_min_length"`
	TextMaxLength        int     `mapstructure:"text_max_length" yaml:"text_max_length"`
	CredentialsMinLength int     `mapstructure:"credentials_min_length" yaml:"credentials_min_length"`
	CredentialsMaxLength int     `mapstructure:"credentials_max_length" yaml:"credentials_max_length"`
}

// DefaultLimits returns the bounds enforced by the admin API.
func DefaultLimits() Limits {
	return Limits{
		RowMin:               1,
		RowMax:               1000,
		PriceMin:             0,
		PriceMax:             999999.99,
		StringMinLength:      1,
		StringMaxLength:      500,
		TextMinLength:        0,
		TextMaxLength:        10000,
		CredentialsMinLength: 1,
		CredentialsMaxLength: 100,
	}
}

// Validate reports the first inconsistent bound.
func (l Limits) Validate() error {
	if l.RowMin < 1 {
		return errors.New("validation RowMin must be >= 1")
	}
	if l.RowMax < l.RowMin {
		return errors.New("validation RowMax must be >= RowMin")
	}
	if l.PriceMin < 0 {
		return errors.New("validation PriceMin cannot be negative")
	}
	if l.PriceMax < l.PriceMin {
		return errors.New("validation PriceMax must be >= PriceMin")
	}
	if l.StringMinLength < 1 || l.StringMaxLength < l.StringMinLength {
		return errors.New("validation string length bounds are invalid")
	}
	if l.TextMinLength < 0 || l.TextMaxLength < l.TextMinLength {
		return errors.New("validation text length bounds are invalid")
	}
	if l.CredentialsMinLength < 1 || l.CredentialsMaxLength < l.CredentialsMinLength {
		return errors.New("validation credentials length bounds are invalid")
	}
	return nil
}

// Engine evaluates the entity schemas. It holds no per-call state and is
// safe for concurrent use.
type Engine struct {
	limits   Limits
	validate *validator.Validate

	credentials *Schema
	inside      *Schema
	product     *Schema
	update      *Schema
	text        *Schema
}

// New builds an Engine for the given limits.
func New(limits Limits) (*Engine, error) {
	if err := limits.Validate(); err != nil {
		return nil, err
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation(tagNoControl, noControlChars); err != nil {
		return nil, fmt.Errorf("register %s: %w", tagNoControl, err)
	}

	e := &Engine{limits: limits, validate: v}
	e.credentials = credentialsSchema(limits)
	e.inside = insideSchema(limits)
	e.product = rowSchema(limits, "Product data is required", "insides",
		"Product must have at least one inside item",
		"Product inside items must have unique IDs", e.inside)
	e.update = rowSchema(limits, "Update data is required", "data",
		"Update data must contain at least one item",
		"Update data items must have unique IDs", e.inside)
	e.text = textSchema(limits)
	return e, nil
}

// Default returns an Engine with DefaultLimits. The defaults are known to be
// consistent, so construction cannot fail.
func Default() *Engine {
	e, err := New(DefaultLimits())
	if err != nil {
		panic(err)
	}
	return e
}

// Limits returns the bounds the engine was built with.
func (e *Engine) Limits() Limits {
	return e.limits
}

// Validate evaluates input against an arbitrary schema.
func (e *Engine) Validate(s *Schema, input any) Result {
	return newResult(input, evaluate(e.validate, s, input))
}

func (e *Engine) ValidateCredentials(input any) Result {
	return e.Validate(e.credentials, input)
}

func (e *Engine) ValidateProductInside(input any) Result {
	return e.Validate(e.inside, input)
}

func (e *Engine) ValidateProduct(input any) Result {
	return e.Validate(e.product, input)
}

func (e *Engine) ValidateProductUpdate(input any) Result {
	return e.Validate(e.update, input)
}

// ValidateText accepts the bare text value (normally a string), a
// catalog.TextContent, or a decoded record holding a "text" key.
func (e *Engine) ValidateText(input any) Result {
	value := input
	switch t := input.(type) {
	case map[string]any:
		if v, ok := t["text"]; ok {
			value = v
		}
	case catalog.TextContent:
		value = t.Text
	case *catalog.TextContent:
		if t != nil {
			value = t.Text
		} else {
			value = nil
		}
	case *string:
		if t != nil {
			value = *t
		} else {
			value = nil
		}
	}
	return newResult(input, evaluate(e.validate, e.text, map[string]any{"text": value}))
}

func credentialsSchema(l Limits) *Schema {
	lengthTag := fmt.Sprintf("min=%d,max=%d", l.CredentialsMinLength, l.CredentialsMaxLength)
	return &Schema{
		Name:     "credentials",
		Required: "Credentials object is required",
		Fields: []Field{
			{
				Key:      "login",
				Kind:     KindString,
				Required: "Username is required and must be a string",
				Type:     "Username is required and must be a string",
				NonEmpty: true,
				Rules: []Rule{{
					Tag:     lengthTag,
					Message: fmt.Sprintf("Username must be between %d and %d characters", l.CredentialsMinLength, l.CredentialsMaxLength),
				}},
			},
			{
				Key:      "password",
				Kind:     KindString,
				Required: "Password is required and must be a string",
				Type:     "Password is required and must be a string",
				NonEmpty: true,
				Rules: []Rule{{
					Tag:     lengthTag,
					Message: fmt.Sprintf("Password must be between %d and %d characters", l.CredentialsMinLength, l.CredentialsMaxLength),
				}},
			},
		},
	}
}

func insideSchema(l Limits) *Schema {
	stringField := func(key, label string) Field {
		msg := label + " is required and must be a string"
		return Field{
			Key:      key,
			Kind:     KindString,
			Required: msg,
			Type:     msg,
			NonEmpty: true,
			Rules: []Rule{{
				Tag:     fmt.Sprintf("min=%d,max=%d", l.StringMinLength, l.StringMaxLength),
				Message: fmt.Sprintf("%s must be between %d and %d characters", label, l.StringMinLength, l.StringMaxLength),
			}},
		}
	}

	const idMsg = "ID must be a positive integer"
	return &Schema{
		Name:     "product inside item",
		Required: "Product inside item must be an object",
		Fields: []Field{
			stringField("product", "Product name"),
			stringField("activeSubstance", "Active substance"),
			stringField("dosage", "Dosage"),
			{
				Key:      "availability",
				Kind:     KindBool,
				Required: "Availability must be a boolean value",
				Type:     "Availability must be a boolean value",
			},
			{
				Key:      "price",
				Kind:     KindNumber,
				Required: "Price must be a valid number",
				Type:     "Price must be a valid number",
				Rules: []Rule{{
					Tag:     "gte=" + formatFloat(l.PriceMin) + ",lte=" + formatFloat(l.PriceMax),
					Message: "Price must be between " + formatFloat(l.PriceMin) + " and " + formatFloat(l.PriceMax),
				}},
			},
			{
				Key:      "id",
				Kind:     KindInteger,
				Required: idMsg,
				Type:     idMsg,
				Rules:    []Rule{{Tag: "gte=1", Message: idMsg}},
			},
		},
	}
}

func rowSchema(l Limits, required, itemsKey, itemsMsg, duplicate string, elem *Schema) *Schema {
	const rowMsg = "Row number is required and must be an integer"
	return &Schema{
		Name:     itemsKey,
		Required: required,
		Fields: []Field{
			{
				Key:      "row",
				Kind:     KindInteger,
				Required: rowMsg,
				Type:     rowMsg,
				Rules: []Rule{{
					Tag:     fmt.Sprintf("gte=%d,lte=%d", l.RowMin, l.RowMax),
					Message: fmt.Sprintf("Row number must be between %d and %d", l.RowMin, l.RowMax),
				}},
			},
			{
				Key:       itemsKey,
				Kind:      KindSequence,
				Required:  itemsMsg,
				Type:      itemsMsg,
				NonEmpty:  true,
				Elem:      elem,
				UniqueKey: "id",
				Duplicate: duplicate,
			},
		},
	}
}

func textSchema(l Limits) *Schema {
	rules := []Rule{{
		Tag:     fmt.Sprintf("max=%d", l.TextMaxLength),
		Message: fmt.Sprintf("Text content must not exceed %d characters", l.TextMaxLength),
	}}
	if l.TextMinLength > 0 {
		rules = append(rules, Rule{
			Tag:     fmt.Sprintf("min=%d", l.TextMinLength),
			Message: fmt.Sprintf("Text content must be at least %d characters long", l.TextMinLength),
		})
	}
	rules = append(rules, Rule{
		Tag:     tagNoControl,
		Message: "Text content must not contain control characters",
	})

	return &Schema{
		Name:     "text",
		Required: "Text content is required",
		Fields: []Field{{
			Key:      "text",
			Kind:     KindString,
			Required: "Text content is required",
			Type:     "Text content must be a string",
			Rules:    rules,
		}},
	}
}

// noControlChars allows tab, LF and CR; the editor emits them in HTML bodies.
func noControlChars(fl validator.FieldLevel) bool {
	for _, r := range fl.Field().String() {
		if r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
