// Package products classifies transit lines into coarse product types.
//
// HAFAS backends describe a line by a numeric class bitmask, a textual category such as
// "ICE" or "Bus", or both. The mapping differs per network and is supplied as a table.
package products

import (
	"fmt"
	"io"
	"strings"

	"github.com/jamespfennell/hafas/csv"
)

type Product int32

const (
	Unknown        Product = 0
	HighSpeedTrain Product = 1
	RegionalTrain  Product = 2
	SuburbanTrain  Product = 3
	Subway         Product = 4
	Tram           Product = 5
	Bus            Product = 6
	Ferry          Product = 7
	Cablecar       Product = 8
	OnDemand       Product = 9
)

func (p Product) String() string {
	switch p {
	case HighSpeedTrain:
		return "HIGH_SPEED_TRAIN"
	case RegionalTrain:
		return "REGIONAL_TRAIN"
	case SuburbanTrain:
		return "SUBURBAN_TRAIN"
	case Subway:
		return "SUBWAY"
	case Tram:
		return "TRAM"
	case Bus:
		return "BUS"
	case Ferry:
		return "FERRY"
	case Cablecar:
		return "CABLECAR"
	case OnDemand:
		return "ON_DEMAND"
	default:
		return "UNKNOWN"
	}
}

// Parse accepts the String form of a product, case-insensitively.
func Parse(s string) (Product, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "HIGH_SPEED_TRAIN":
		return HighSpeedTrain, true
	case "REGIONAL_TRAIN":
		return RegionalTrain, true
	case "SUBURBAN_TRAIN":
		return SuburbanTrain, true
	case "SUBWAY":
		return Subway, true
	case "TRAM":
		return Tram, true
	case "BUS":
		return Bus, true
	case "FERRY":
		return Ferry, true
	case "CABLECAR":
		return Cablecar, true
	case "ON_DEMAND":
		return OnDemand, true
	case "UNKNOWN":
		return Unknown, true
	}
	return Unknown, false
}

// Classifier maps the line attributes of a leg to a product.
type Classifier interface {
	Classify(category string, class int, adminCode string) Product
}

// FromClass maps the conventional HAFAS class bits to a product.
//
// When several bits are set the lowest one wins.
func FromClass(class int) Product {
	switch {
	case class <= 0:
		return Unknown
	case class&0x3 != 0:
		return HighSpeedTrain
	case class&0xc != 0:
		return RegionalTrain
	case class&0x10 != 0:
		return SuburbanTrain
	case class&0x20 != 0:
		return Bus
	case class&0x40 != 0:
		return Ferry
	case class&0x80 != 0:
		return Subway
	case class&0x100 != 0:
		return Tram
	case class&0x200 != 0:
		return OnDemand
	case class&0x400 != 0:
		return Cablecar
	}
	return Unknown
}

type tableKey struct {
	adminCode string
	category  string
}

// Table is a Classifier backed by category lookups.
//
// Rows with an admin code take precedence over rows without one for the same category.
type Table struct {
	entries map[tableKey]Product
}

func NewTable() *Table {
	return &Table{entries: map[tableKey]Product{}}
}

func (t *Table) Add(adminCode, category string, p Product) {
	t.entries[tableKey{adminCode: adminCode, category: strings.ToUpper(category)}] = p
}

// Lookup resolves a category, returning Unknown if no row matches.
func (t *Table) Lookup(category, adminCode string) Product {
	category = strings.ToUpper(strings.TrimSpace(category))
	if category == "" {
		return Unknown
	}
	if adminCode != "" {
		if p, ok := t.entries[tableKey{adminCode: adminCode, category: category}]; ok {
			return p
		}
	}
	return t.entries[tableKey{category: category}]
}

// Classify prefers the class bits and falls back to the category.
func (t *Table) Classify(category string, class int, adminCode string) Product {
	if p := FromClass(class); p != Unknown {
		return p
	}
	return t.Lookup(category, adminCode)
}

// DefaultTable covers the categories common to most German-speaking networks.
func DefaultTable() *Table {
	t := NewTable()
	for p, categories := range map[Product][]string{
		HighSpeedTrain: {"ICE", "IC", "EC", "ECE", "TGV", "RJ", "RJX", "NJ", "EN", "THA", "FLX"},
		RegionalTrain:  {"RE", "RB", "IRE", "IR", "R", "REX", "MEX", "D", "TER"},
		SuburbanTrain:  {"S", "SB", "S-BAHN"},
		Subway:         {"U", "U-BAHN", "M", "METRO"},
		Tram:           {"STR", "T", "TRAM", "STB"},
		Bus:            {"BUS", "B", "NB", "SEV", "RUF", "EV"},
		Ferry:          {"F", "FÄH", "FAE", "SCHIFF", "SCH", "KAT"},
		Cablecar:       {"SEILBAHN", "SB-SEIL", "ZAHNRADBAHN"},
		OnDemand:       {"AST", "ALT", "RT"},
	} {
		for _, c := range categories {
			t.Add("", c, p)
		}
	}
	return t
}

// LoadTable reads a table from CSV with the columns category and product, and an
// optional admin_code column. Rows with missing values are rejected.
func LoadTable(name string, reader io.Reader) (*Table, error) {
	f, err := csv.New(name, reader)
	if err != nil {
		return nil, err
	}
	categoryColumn := f.RequiredColumn("category")
	productColumn := f.RequiredColumn("product")
	adminCodeColumn := f.OptionalColumn("admin_code")
	if missing := f.MissingColumns(); len(missing) > 0 {
		return nil, fmt.Errorf("%s: missing columns %s", name, missing)
	}
	t := NewTable()
	for f.NextRow() {
		category := categoryColumn.Read()
		rawProduct := productColumn.Read()
		if missing := f.MissingRowKeys(); len(missing) > 0 {
			return nil, fmt.Errorf("%s row %d: missing values for %s", name, f.RowNumber(), missing)
		}
		p, ok := Parse(rawProduct)
		if !ok {
			return nil, fmt.Errorf("%s row %d: unknown product %q", name, f.RowNumber(), rawProduct)
		}
		t.Add(adminCodeColumn.Read(), category, p)
	}
	if err := f.Err(); err != nil {
		return nil, err
	}
	return t, nil
}
