// Package db contains the extension for Deutsche Bahn style HAFAS deployments.
package db

import (
	"regexp"
	"strings"

	"github.com/jamespfennell/hafas/extensions"
	"github.com/jamespfennell/hafas/products"
)

var PositionRegex *regexp.Regexp = regexp.MustCompile(`(?i)^(?:(?:gleis|bahnsteig|steig|platform)\s+|(?:gl|bstg|stg|pl)\.\s*)(\S+)$`)

// Admin codes are prefixed with the UIC country code of the operator.
var networksByCountryCode = map[string]string{
	"80": "db",
	"81": "oebb",
	"85": "sbb",
	"88": "sncb",
}

type ExtensionOpts struct {
	// Products overrides the product table. Class bits always take precedence.
	Products products.Classifier
}

func Extension(opts ExtensionOpts) extensions.Extension {
	return extension{opts: opts}
}

type extension struct {
	opts ExtensionOpts
}

func (e extension) ClassifyProduct(category string, class int, adminCode string) products.Product {
	if p := products.FromClass(class); p != products.Unknown {
		return p
	}
	if e.opts.Products != nil {
		return e.opts.Products.Classify(category, 0, adminCode)
	}
	return extensions.NoExtension().ClassifyProduct(category, 0, adminCode)
}

// NormalizePosition strips the platform label, so "Gl. 5" becomes "5".
func (e extension) NormalizePosition(raw string) string {
	raw = strings.TrimSpace(raw)
	if m := PositionRegex.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return raw
}

func (e extension) NormalizeNetwork(adminCode string) string {
	adminCode = strings.Trim(adminCode, " _")
	if len(adminCode) >= 2 {
		if network, ok := networksByCountryCode[adminCode[:2]]; ok {
			return network
		}
	}
	return strings.ToLower(adminCode)
}
