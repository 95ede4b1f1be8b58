package item

import (
	"fmt"
	"sort"
	"strings"
)

// Canonical field names. Catalog column names carry a "product_" prefix
// (product_title, product_brand, ...) and resolve to the same fields.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldBulletPoint = "bullet_point"
	FieldBrand       = "brand"
	FieldColor       = "color"
	FieldLocale      = "locale"
)

const columnPrefix = "product_"

// MaxIDLength is the maximum item identifier length.
const MaxIDLength = 256

// Attributes holds the textual attributes of an item. A nil pointer means the value is absent.
type Attributes struct {
	Title       *string
	Description *string
	BulletPoint *string
	Brand       *string
	Color       *string
	Locale      *string
	// Extra carries catalog columns outside the fixed shape.
	Extra map[string]string
}

// Item is an immutable catalog entry.
type Item struct {
	id          string
	title       *string
	description *string
	bulletPoint *string
	brand       *string
	color       *string
	locale      *string
	extra       map[string]string
}

// New validates and creates an Item. ID must be non-empty and at most 256 bytes.
func New(id string, attrs Attributes) (Item, error) {
	if id == "" {
		return Item{}, fmt.Errorf("item ID is required")
	}
	if len(id) > MaxIDLength {
		return Item{}, fmt.Errorf("item ID too long (max %d)", MaxIDLength)
	}
	return Item{
		id:          id,
		title:       cloneString(attrs.Title),
		description: cloneString(attrs.Description),
		bulletPoint: cloneString(attrs.BulletPoint),
		brand:       cloneString(attrs.Brand),
		color:       cloneString(attrs.Color),
		locale:      cloneString(attrs.Locale),
		extra:       cloneStringMap(attrs.Extra),
	}, nil
}

// ID returns the item identifier.
func (it *Item) ID() string { return it.id }

// Field returns the value of the named field and whether it is present.
// Accepts canonical names (title) and catalog column names (product_title);
// any other name is looked up in the extra attributes.
func (it *Item) Field(name string) (string, bool) {
	var p *string
	switch strings.TrimPrefix(name, columnPrefix) {
	case FieldTitle:
		p = it.title
	case FieldDescription:
		p = it.description
	case FieldBulletPoint:
		p = it.bulletPoint
	case FieldBrand:
		p = it.brand
	case FieldColor:
		p = it.color
	case FieldLocale:
		p = it.locale
	default:
		v, ok := it.extra[name]
		return v, ok
	}
	if p == nil {
		return "", false
	}
	return *p, true
}

// Title returns the title, or "" when absent.
func (it *Item) Title() string {
	v, _ := it.Field(FieldTitle)
	return v
}

// Attributes returns all present attributes keyed by canonical name, extras included.
func (it *Item) Attributes() map[string]string {
	out := make(map[string]string, 6+len(it.extra))
	for k, v := range it.extra {
		out[k] = v
	}
	for _, name := range FixedFields() {
		if v, ok := it.Field(name); ok {
			out[name] = v
		}
	}
	return out
}

// FixedFields lists the canonical fixed-shape field names.
func FixedFields() []string {
	return []string{FieldTitle, FieldDescription, FieldBulletPoint, FieldBrand, FieldColor, FieldLocale}
}

// IsFixedField reports whether name resolves to a fixed-shape field.
func IsFixedField(name string) bool {
	n := strings.TrimPrefix(name, columnPrefix)
	for _, f := range FixedFields() {
		if f == n {
			return true
		}
	}
	return false
}

// ExtraKeys returns the extra attribute names in sorted order.
func (it *Item) ExtraKeys() []string {
	keys := make([]string, 0, len(it.extra))
	for k := range it.extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// StringPtr returns a pointer to s. Convenience for building Attributes.
func StringPtr(s string) *string { return &s }

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	c := make(map[string]string, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
