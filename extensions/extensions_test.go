package extensions

import (
	"testing"

	"github.com/jamespfennell/hafas/products"
	"github.com/stretchr/testify/assert"
)

type fixedClassifier products.Product

func (f fixedClassifier) Classify(string, int, string) products.Product {
	return products.Product(f)
}

func TestNoExtension(t *testing.T) {
	ext := NoExtension()
	assert.Equal(t, products.Tram, ext.ClassifyProduct("STR", 0, ""))
	assert.Equal(t, products.Bus, ext.ClassifyProduct("STR", 32, ""))
	assert.Equal(t, "3a", ext.NormalizePosition(" 3a "))
	assert.Equal(t, "vbb", ext.NormalizeNetwork("vbb___"))
}

func TestNoExtensionWithProducts(t *testing.T) {
	ext := NoExtensionImpl{Products: fixedClassifier(products.Ferry)}
	assert.Equal(t, products.Ferry, ext.ClassifyProduct("ICE", 1, ""))
}
