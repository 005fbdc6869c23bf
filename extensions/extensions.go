// Package extensions contains the network-specific hooks used when decoding trips.
//
// HAFAS deployments share the wire format but differ in how they label products,
// platforms and operators.
package extensions

import (
	"strings"

	"github.com/jamespfennell/hafas/products"
)

type Extension interface {
	// ClassifyProduct resolves the product of a public leg. Any argument may be empty.
	ClassifyProduct(category string, class int, adminCode string) products.Product

	// NormalizePosition cleans raw platform text. An empty result means no platform.
	NormalizePosition(raw string) string

	// NormalizeNetwork maps an admin code to a network name. An empty result means unknown.
	NormalizeNetwork(adminCode string) string
}

func NoExtension() Extension {
	return NoExtensionImpl{}
}

// NoExtensionImpl classifies with products.DefaultTable unless Products is set, and
// otherwise only trims its inputs.
type NoExtensionImpl struct {
	Products products.Classifier
}

var defaultProducts = products.DefaultTable()

func (n NoExtensionImpl) ClassifyProduct(category string, class int, adminCode string) products.Product {
	if n.Products != nil {
		return n.Products.Classify(category, class, adminCode)
	}
	return defaultProducts.Classify(category, class, adminCode)
}

func (n NoExtensionImpl) NormalizePosition(raw string) string {
	return strings.TrimSpace(raw)
}

func (n NoExtensionImpl) NormalizeNetwork(adminCode string) string {
	return strings.Trim(adminCode, " _")
}
