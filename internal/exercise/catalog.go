package exercise

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/hyperengineering/ascent/internal/types"
)

// Catalog is an immutable set of exercise definitions keyed by id.
type Catalog struct {
	defs map[string]Definition
}

// catalogFile is the on-disk YAML layout.
type catalogFile struct {
	Exercises []Definition `yaml:"exercises"`
}

// NewCatalog validates defs and builds a catalog. Later entries with the same
// id replace earlier ones.
func NewCatalog(defs ...Definition) (*Catalog, error) {
	c := &Catalog{defs: make(map[string]Definition, len(defs))}
	for _, d := range defs {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		c.defs[d.ID] = d
	}
	return c, nil
}

// Builtin returns the catalog of built-in exercises.
func Builtin() *Catalog {
	c, err := NewCatalog(builtins()...)
	if err != nil {
		panic(fmt.Sprintf("exercise: built-in catalog is invalid: %v", err))
	}
	return c
}

// Load returns the built-in catalog, overlaid with the file at path when path
// is non-empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Builtin(), nil
	}
	return LoadFile(path)
}

// LoadFile reads a YAML catalog and merges it over the built-in definitions.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read exercise catalog: %w", err)
	}
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse exercise catalog: %w", err)
	}
	defs := append(builtins(), file.Exercises...)
	return NewCatalog(defs...)
}

// Get returns the definition with the given id.
func (c *Catalog) Get(id string) (Definition, error) {
	d, ok := c.defs[id]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %q", ErrUnknownExercise, id)
	}
	return d, nil
}

// IDs returns every exercise id in sorted order.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.defs))
	for id := range c.defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// List returns every definition sorted by id.
func (c *Catalog) List() []Definition {
	ids := c.IDs()
	out := make([]Definition, len(ids))
	for i, id := range ids {
		out[i] = c.defs[id]
	}
	return out
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks struct constraints and the cross-field rules the tags
// cannot express.
func (d Definition) Validate() error {
	if err := validate.Struct(d); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, describe(fe))
			}
			return fmt.Errorf("%w: %s: %s", ErrInvalidDefinition, d.ID, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %s: %v", ErrInvalidDefinition, d.ID, err)
	}

	for _, t := range types.SessionTypes {
		if _, ok := d.Params[t]; !ok {
			return fmt.Errorf("%w: %s: params missing session type %s", ErrInvalidDefinition, d.ID, t)
		}
	}
	for _, v := range d.HypertrophyVariants {
		if !d.HasVariant(v) {
			return fmt.Errorf("%w: %s: hypertrophy variant %q is not a listed variant", ErrInvalidDefinition, d.ID, v)
		}
	}
	for v := range d.VariantFactors {
		if !d.HasVariant(v) {
			return fmt.Errorf("%w: %s: variant factor for unlisted variant %q", ErrInvalidDefinition, d.ID, v)
		}
	}
	return nil
}

func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "unique":
		return fmt.Sprintf("%s must not contain duplicates", field)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte", "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte", "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gtefield":
		return fmt.Sprintf("%s must not be below %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}
