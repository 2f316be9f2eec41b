package model

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/gosimple/slug"
)

var ErrAttributeMismatch = errors.New("attribute names and values must have the same length")

// ProductAttribute is one entry of the _product_attributes list.
type ProductAttribute struct {
	Name        string   `json:"name"`
	Slug        string   `json:"slug"`
	Position    int      `json:"position"`
	Visible     bool     `json:"is_visible"`
	IsVariation bool     `json:"is_variation"`
	IsTaxonomy  bool     `json:"is_taxonomy"`
	Options     []string `json:"value"`
}

// BuildAttributes pairs names with their raw option lists. Each raw value is split on ',' or '|'.
// Two empty inputs yield nil, meaning the product has no attributes.
func BuildAttributes(names, values []string) ([]ProductAttribute, error) {
	if len(names) != len(values) {
		return nil, ErrAttributeMismatch
	}
	if len(names) == 0 {
		return nil, nil
	}
	attrs := make([]ProductAttribute, 0, len(names))
	for i, name := range names {
		name = strings.TrimSpace(name)
		attrs = append(attrs, ProductAttribute{
			Name:     name,
			Slug:     slug.Make(name),
			Position: i,
			Visible:  true,
			Options:  SplitOptions(values[i]),
		})
	}
	return attrs, nil
}

// SplitOptions splits a raw attribute value on ',' or '|' and trims each option.
func SplitOptions(raw string) []string {
	parts := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == '|' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EncodeAttributes(attrs []ProductAttribute) (string, error) {
	if attrs == nil {
		attrs = []ProductAttribute{}
	}
	b, err := json.Marshal(attrs)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeAttributes parses a stored attribute list. It always returns a non-nil slice;
// on failure the slice is empty and the error describes the corrupt value.
func DecodeAttributes(raw string) ([]ProductAttribute, error) {
	if strings.TrimSpace(raw) == "" {
		return []ProductAttribute{}, nil
	}
	var attrs []ProductAttribute
	if err := json.Unmarshal([]byte(raw), &attrs); err != nil {
		return []ProductAttribute{}, err
	}
	if attrs == nil {
		attrs = []ProductAttribute{}
	}
	return attrs, nil
}
