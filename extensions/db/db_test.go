package db

import (
	"fmt"
	"testing"

	"github.com/jamespfennell/hafas/products"
)

func TestNormalizePosition(t *testing.T) {
	ext := Extension(ExtensionOpts{})
	for i, tc := range []struct {
		raw      string
		expected string
	}{
		{"Gl. 5", "5"},
		{"Gleis 7a", "7a"},
		{"Bstg. 3", "3"},
		{"gl.12", "12"},
		{"  4 ", "4"},
		{"Nord", "Nord"},
		{"Glasgow", "Glasgow"},
		{"", ""},
	} {
		t.Run(fmt.Sprintf("case_%d", i), func(t *testing.T) {
			if actual := ext.NormalizePosition(tc.raw); actual != tc.expected {
				t.Errorf("NormalizePosition(%q) = %q, want %q", tc.raw, actual, tc.expected)
			}
		})
	}
}

func TestNormalizeNetwork(t *testing.T) {
	ext := Extension(ExtensionOpts{})
	for raw, expected := range map[string]string{
		"80____": "db",
		"81":     "oebb",
		"VBB":    "vbb",
		"":       "",
	} {
		if actual := ext.NormalizeNetwork(raw); actual != expected {
			t.Errorf("NormalizeNetwork(%q) = %q, want %q", raw, actual, expected)
		}
	}
}

func TestClassifyProduct(t *testing.T) {
	table := products.NewTable()
	table.Add("", "X", products.Ferry)
	ext := Extension(ExtensionOpts{Products: table})

	if p := ext.ClassifyProduct("X", 0, ""); p != products.Ferry {
		t.Errorf("category lookup: got %s", p)
	}
	if p := ext.ClassifyProduct("X", 0x100, ""); p != products.Tram {
		t.Errorf("class bits: got %s", p)
	}
	if p := Extension(ExtensionOpts{}).ClassifyProduct("ICE", 0, ""); p != products.HighSpeedTrain {
		t.Errorf("default table: got %s", p)
	}
}
