package salesapi

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/andresuchdata/purchasing-admin/backend-go/internal/domain"
	"github.com/andresuchdata/purchasing-admin/backend-go/pkg/numconv"
)

// The remote API is loosely typed: numbers arrive as numbers or strings,
// flags as bools or "true". Raw shapes keep every field as any until it is
// normalized here.

type rawOrderLine struct {
	ProductNumber any             `json:"product_number"`
	ProductName   any             `json:"product_name"`
	ProductID     any             `json:"product_id"`
	Quantity      any             `json:"quantity"`
	LineType      any             `json:"line_typename"`
	Size          any             `json:"size"`
	Children      json.RawMessage `json:"children"`
}

type rawChildLine struct {
	ProductNumber any `json:"child_product_number"`
	ProductName   any `json:"child_product_name"`
	ProductID     any `json:"child_product_id"`
	Quantity      any `json:"child_quantity"`
	LineType      any `json:"child_line_typename"`
	Size          any `json:"child_size"`
}

type rawProduct struct {
	ProductID             any `json:"productId"`
	LegacyProductID       any `json:"product_id"`
	ProductNumber         any `json:"productNumber"`
	ProductName           any `json:"productName"`
	ProductType           any `json:"productType"`
	Collection            any `json:"collection"`
	Supplier              any `json:"supplier"`
	Status                any `json:"status"`
	IsBundle              any `json:"isBundle"`
	TotalPhysicalQuantity any `json:"totalPhysicalQuantity"`
	ProductSizeInfo       any `json:"productSizeInfo"`
	UnitCost              any `json:"unitCost"`
}

func normalizeOrderLine(r rawOrderLine) domain.OrderLine {
	line := domain.OrderLine{
		ProductNumber: str(r.ProductNumber),
		ProductName:   str(r.ProductName),
		ProductID:     str(r.ProductID),
		Quantity:      numconv.IntFromAny(r.Quantity),
		Type:          domain.LineType(str(r.LineType)),
		Size:          str(r.Size),
	}

	var children []rawChildLine
	if len(r.Children) > 0 && json.Unmarshal(r.Children, &children) == nil {
		line.Children = make([]domain.ChildOrderLine, 0, len(children))
		for _, c := range children {
			line.Children = append(line.Children, domain.ChildOrderLine{
				ProductNumber: str(c.ProductNumber),
				ProductName:   str(c.ProductName),
				ProductID:     str(c.ProductID),
				Quantity:      numconv.IntFromAny(c.Quantity),
				Type:          domain.LineType(str(c.LineType)),
				Size:          str(c.Size),
			})
		}
	}
	return line
}

func normalizeProduct(r rawProduct) domain.ProductInfo {
	id := str(r.ProductID)
	if id == "" {
		id = str(r.LegacyProductID)
	}
	return domain.ProductInfo{
		ProductID:             id,
		ProductNumber:         str(r.ProductNumber),
		ProductName:           str(r.ProductName),
		ProductType:           str(r.ProductType),
		Collection:            str(r.Collection),
		Supplier:              str(r.Supplier),
		Status:                str(r.Status),
		IsBundle:              flag(r.IsBundle),
		TotalPhysicalQuantity: numconv.FromAny(r.TotalPhysicalQuantity),
		ProductSizeInfo:       str(r.ProductSizeInfo),
		UnitCost:              numconv.FromAny(r.UnitCost),
	}
}

func str(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return numconv.FormatFloat(t)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

func flag(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return strings.EqualFold(strings.TrimSpace(t), "true")
	default:
		return false
	}
}
