package csvcodec

import (
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/purchasing-admin/backend-go/internal/domain"
	"github.com/andresuchdata/purchasing-admin/backend-go/pkg/numconv"
)

// CostColumns is the layout of the new unit cost export. Only the first
// three columns are imported by the stock system.
var CostColumns = []string{
	"ProductID", "SKU", "Cost/Pcs", "Size", "Old Unit Cost", "Price Source", "Received Qty", "Current Stock",
}

// CostExportMeta is written as a comment preamble above the cost rows.
type CostExportMeta struct {
	GeneratedAt        time.Time
	OrderName          string
	Currency           domain.Currency
	ExchangeRate       float64
	CustomsDutyPercent float64
	ShippingCost       float64
	PriceListName      string
}

// CostRow is one received line.
type CostRow struct {
	ProductID    string
	SKU          string
	Size         string
	NewUnitCost  float64
	OldUnitCost  float64
	PriceSource  string
	ReceivedQty  int
	CurrentStock float64
}

// NewUnitCostCSV renders the `# key: value` preamble, a blank line and the
// cost rows. Rows with nothing received are left out.
func NewUnitCostCSV(meta CostExportMeta, rows []CostRow) string {
	rate := numconv.FormatFloat(meta.ExchangeRate)
	if meta.Currency == domain.BaseCurrency {
		rate = "1"
	}
	priceList := meta.PriceListName
	if strings.TrimSpace(priceList) == "" {
		priceList = "None"
	}

	preamble := [][2]string{
		{"Generated", meta.GeneratedAt.Format("2006-01-02 15:04:05")},
		{"Order", meta.OrderName},
		{"Currency", string(meta.Currency)},
		{"Exchange rate", rate},
		{"Customs duty (%)", numconv.FormatFloat(meta.CustomsDutyPercent)},
		{"Shipping (" + string(domain.BaseCurrency) + ")", numconv.FormatFloat(meta.ShippingCost)},
		{"Price list", priceList},
		{"Import", "keep only the columns ProductID, SKU, Cost/Pcs"},
	}

	lines := make([]string, 0, len(preamble)+len(rows)+2)
	for _, kv := range preamble {
		lines = append(lines, "# "+kv[0]+": "+kv[1])
	}
	lines = append(lines, "", FormatRow(CostColumns))

	for _, r := range rows {
		if r.ReceivedQty <= 0 {
			continue
		}
		lines = append(lines, FormatRow([]string{
			r.ProductID,
			r.SKU,
			strconv.FormatFloat(r.NewUnitCost, 'f', 2, 64),
			r.Size,
			strconv.FormatFloat(r.OldUnitCost, 'f', 2, 64),
			r.PriceSource,
			strconv.Itoa(r.ReceivedQty),
			strconv.Itoa(numconv.RoundHalfUp(r.CurrentStock)),
		}))
	}

	return strings.Join(lines, "\n")
}

// StripPreamble drops leading `#` comment lines and blank lines so an export
// can be parsed again.
func StripPreamble(data string) string {
	lines := lineBreak.Split(data, -1)
	i := 0
	for i < len(lines) {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed != "" && !strings.HasPrefix(trimmed, "#") {
			break
		}
		i++
	}
	return strings.Join(lines[i:], "\n")
}
