package provider

import (
	"encoding/xml"
	"math"
	"strconv"
	"strings"

	"budgetmanager/priceworker/internal/catalog"
	"budgetmanager/priceworker/pkg/errors"
)

// minIdentifierLength rejects truncated or junk item codes
const minIdentifierLength = 5

// itemPaths are the known root/path shapes of published price files,
// in priority order. The first shape yielding a non-empty item list
// wins; shapes are never unioned. Chains switch shapes between files
// without declaring a schema version.
var itemPaths = [][]string{
	{"Root", "Items", "Item"},
	{"root", "Items", "Item"},
	{"Prices", "Products", "Product"},
	{"Envelope", "Header", "Details", "Line"},
	{"OrderXml", "Envelope", "Header", "Details", "Line"},
	{"Products", "Product"},
}

// Field-name aliases per concept, in resolution order. The same value
// appears under different names depending on the chain.
var (
	identifierAliases   = []string{"ItemCode", "Barcode", "barcode"}
	nameAliases         = []string{"ItemName", "ItemNm", "ProductName", "name"}
	priceAliases        = []string{"ItemPrice", "Price", "price"}
	manufacturerAliases = []string{"ManufacturerName", "Manufacturer"}
)

// xmlNode is a generic element tree, letting the shape search walk
// arbitrary payloads without per-chain structs
type xmlNode struct {
	XMLName  xml.Name
	Text     string    `xml:",chardata"`
	Children []xmlNode `xml:",any"`
}

// ParsePriceFile decodes one decompressed price file into raw records.
// Malformed items are dropped silently and never partially emitted; a
// payload matching no known shape is a parse failure for that file
// only.
func ParsePriceFile(p Config, data []byte) ([]catalog.RawPriceRecord, error) {
	var root xmlNode
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, errors.NewParse(p.ID, "malformed XML payload", err)
	}

	items := findItems(root)
	if len(items) == 0 {
		return nil, errors.NewParse(p.ID, "no known payload shape matched", nil)
	}

	var records []catalog.RawPriceRecord
	for _, item := range items {
		id := firstAlias(item, identifierAliases)
		name := firstAlias(item, nameAliases)
		price, ok := parsePrice(firstAlias(item, priceAliases))

		if len(id) < minIdentifierLength || name == "" || !ok || price <= 0 {
			continue
		}

		records = append(records, catalog.RawPriceRecord{
			ID:           id,
			Name:         name,
			Price:        price,
			ProviderID:   p.ID,
			ProviderName: p.Name,
			Manufacturer: firstAlias(item, manufacturerAliases),
			Category:     catalog.Classify(name),
		})
	}

	return records, nil
}

// findItems tries each known shape in order and returns the first
// non-empty item list
func findItems(root xmlNode) []xmlNode {
	for _, path := range itemPaths {
		if root.XMLName.Local != path[0] {
			continue
		}
		items := descend([]xmlNode{root}, path[1:])
		if len(items) > 0 {
			return items
		}
	}
	return nil
}

// descend walks one level of the path per step, gathering matching
// children at each level
func descend(nodes []xmlNode, path []string) []xmlNode {
	for _, name := range path {
		var next []xmlNode
		for _, node := range nodes {
			for _, child := range node.Children {
				if child.XMLName.Local == name {
					next = append(next, child)
				}
			}
		}
		nodes = next
		if len(nodes) == 0 {
			return nil
		}
	}
	return nodes
}

// firstAlias resolves a concept by trying its field-name aliases in
// order against an item's direct children
func firstAlias(item xmlNode, aliases []string) string {
	for _, alias := range aliases {
		for _, child := range item.Children {
			if child.XMLName.Local != alias {
				continue
			}
			if text := strings.TrimSpace(child.Text); text != "" {
				return text
			}
		}
	}
	return ""
}

// parsePrice normalizes a price string to a two-decimal value. Chains
// use either '.' or ',' as the decimal separator.
func parsePrice(raw string) (float64, bool) {
	if raw == "" {
		return 0, false
	}
	normalized := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	value, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return 0, false
	}
	return math.Round(value*100) / 100, true
}
