// Package sizeinfo turns the free-form size/stock text stored on a product
// into a list of sizes with stock counts.
package sizeinfo

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/andresuchdata/purchasing-admin/backend-go/internal/domain"
	"github.com/andresuchdata/purchasing-admin/backend-go/pkg/numconv"
)

// maxBareSizeLen bounds tokens accepted by the whitespace rule ("S M L XL").
const maxBareSizeLen = 3

var (
	singleSizes  = map[string]bool{"One Size": true, "Universal": true, "N/A": true}
	listSplitter = regexp.MustCompile(`[,/;-]`)
)

// Parse never fails. Rules are tried in order and the first match wins:
//
//  1. empty text is a single "One Size" entry
//  2. "One Size", "Universal" and "N/A" are kept as a single entry
//  3. a single SIZE:STOCK pair with a numeric stock
//  4. lists separated by , / ; or " - ", each fragment SIZE:STOCK or bare
//  5. whitespace separated tokens, when every size is at most 3 characters
//  6. the whole text as one size with stock 0
func Parse(sizeInfo string) []domain.SizeStock {
	clean := strings.TrimSpace(sizeInfo)
	if clean == "" {
		return []domain.SizeStock{{Size: domain.OneSize, Stock: 0}}
	}

	if singleSizes[clean] {
		return []domain.SizeStock{{Size: clean, Stock: 0}}
	}

	if strings.Contains(clean, ":") {
		parts := strings.Split(clean, ":")
		if len(parts) == 2 && numconv.IsNumeric(parts[1]) {
			return []domain.SizeStock{{
				Size:  strings.TrimSpace(parts[0]),
				Stock: numconv.LeadingInt(strings.TrimSpace(parts[1])),
			}}
		}
	}

	if hasListSeparator(clean) {
		var sizes []domain.SizeStock
		for _, fragment := range listSplitter.Split(clean, -1) {
			fragment = strings.TrimSpace(fragment)
			if fragment == "" {
				continue
			}
			sizes = append(sizes, parseFragment(fragment))
		}
		if len(sizes) > 0 {
			return sizes
		}
	}

	if strings.Contains(clean, " ") {
		tokens := strings.Fields(clean)
		sizes := make([]domain.SizeStock, 0, len(tokens))
		short := true
		for _, token := range tokens {
			s := parseFragment(token)
			if utf8.RuneCountInString(s.Size) > maxBareSizeLen {
				short = false
				break
			}
			sizes = append(sizes, s)
		}
		if short && len(sizes) > 0 {
			return sizes
		}
	}

	return []domain.SizeStock{{Size: clean, Stock: 0}}
}

// SizeNames returns just the size labels of Parse(sizeInfo).
func SizeNames(sizeInfo string) []string {
	parsed := Parse(sizeInfo)
	names := make([]string, len(parsed))
	for i, s := range parsed {
		names[i] = s.Size
	}
	return names
}

func hasListSeparator(s string) bool {
	return strings.ContainsAny(s, ",/;") || strings.Contains(s, " - ")
}

func parseFragment(fragment string) domain.SizeStock {
	if !strings.Contains(fragment, ":") {
		return domain.SizeStock{Size: fragment, Stock: 0}
	}
	parts := strings.Split(fragment, ":")
	return domain.SizeStock{
		Size:  strings.TrimSpace(parts[0]),
		Stock: numconv.LeadingInt(strings.TrimSpace(parts[1])),
	}
}
