package product

import (
	"strconv"
	"strings"

	"shoezoneapi/internal/apperr"
	"shoezoneapi/internal/htmldoc"
)

// Selectors for the site's current product-page layout. When the site
// redesigns, these are the first things to break; parse fails loudly rather
// than returning a partial record with no identity.
const (
	selSKU        = "span[itemprop=sku]"
	selName       = "h1[itemprop=name]"
	selPrice      = "span[itemprop=price]"
	selCurrency   = "span[itemprop=priceCurrency]"
	selThumbnail  = "img#productImageMain"
	selBreadcrumb = "ul.breadcrumbs li a"
	selSizeOption = "div#sizeOptions a.sizeOption"
	selOffer      = "div.productOffers div.offer"
)

const sizeCodeLen = 3

// Offer badges the site renders on most pages but that carry no pricing
// information. Matching is exact on the lower-cased title; variants such as
// "Memory Foam Cushioning" currently pass through (known precision gap).
var ignoredOffers = map[string]struct{}{
	"memory foam insoles": {},
	"wide fit":            {},
	"new in":              {},
}

// parseProduct extracts a Product from raw page markup. SKU and name are
// mandatory: if either is missing the page no longer matches the expected
// layout and the whole parse fails. Everything else degrades to zero values.
func parseProduct(parser htmldoc.Parser, markup []byte) (*Product, error) {
	doc, err := parser.Parse(markup)
	if err != nil {
		return nil, err
	}

	skuNode, ok := doc.First(selSKU)
	if !ok {
		return nil, apperr.Internal("product page did not match expected layout")
	}
	id, err := strconv.Atoi(strings.TrimSpace(skuNode.Text()))
	if err != nil {
		return nil, apperr.Internal("product page did not match expected layout")
	}

	nameNode, ok := doc.First(selName)
	if !ok {
		return nil, apperr.Internal("product page did not match expected layout")
	}

	p := &Product{
		ID:       id,
		Name:     strings.TrimSpace(nameNode.Text()),
		Price:    Price{Current: parsePrice(doc)},
		Currency: attrOr(doc, selCurrency, "content", "GBP"),
	}
	if n, ok := doc.First(selThumbnail); ok {
		p.Thumbnail, _ = n.Attr("src")
	}

	doc.Each(selBreadcrumb, func(n htmldoc.Node) {
		if crumb := strings.TrimSpace(n.Text()); crumb != "" {
			p.Categories = append(p.Categories, crumb)
		}
	})

	doc.Each(selSizeOption, func(n htmldoc.Node) {
		id, ok := n.Attr("id")
		if !ok || len(id) < sizeCodeLen {
			return
		}
		entry := SizeEntry{
			Size: strings.ToUpper(strings.TrimSpace(n.Text())),
			Code: id[len(id)-sizeCodeLen:],
		}
		if qty, ok := n.Attr("data-stock"); ok {
			entry.Stock.Warehouse, _ = strconv.Atoi(qty)
		}
		p.SizeRange = append(p.SizeRange, entry)
	})

	doc.Each(selOffer, func(n htmldoc.Node) {
		img, ok := n.First("img")
		if !ok {
			return
		}
		name, _ := img.Attr("alt")
		name = strings.TrimSpace(name)
		if name == "" {
			return
		}
		if _, skip := ignoredOffers[strings.ToLower(name)]; skip {
			return
		}
		src, _ := img.Attr("src")
		p.Offers = append(p.Offers, Offer{Name: name, Image: src, Abbr: Abbreviate(name)})
	})

	return p, nil
}

func parsePrice(doc htmldoc.Doc) float64 {
	n, ok := doc.First(selPrice)
	if !ok {
		return 0
	}
	raw, ok := n.Attr("content")
	if !ok {
		// fall back to the visible text, e.g. "£14.99"
		raw = strings.TrimFunc(n.Text(), func(r rune) bool {
			return (r < '0' || r > '9') && r != '.'
		})
	}
	v, _ := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	return v
}

func attrOr(doc htmldoc.Doc, selector, attr, fallback string) string {
	if n, ok := doc.First(selector); ok {
		if v, ok := n.Attr(attr); ok && v != "" {
			return v
		}
	}
	return fallback
}
