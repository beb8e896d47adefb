package pricelist

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/purchasing-admin/backend-go/internal/csvcodec"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/domain"
	"github.com/andresuchdata/purchasing-admin/backend-go/pkg/numconv"
)

// DefaultChunkSize is the number of rows a bulk edit touches between
// cancellation checks.
const DefaultChunkSize = 100

// BulkMode selects how a bulk edit changes a field.
type BulkMode string

const (
	BulkReplace    BulkMode = "replace"
	BulkPercentage BulkMode = "percentage"
)

var (
	ErrInvalidRows   = errors.New("price list has invalid rows")
	ErrUnknownColumn = errors.New("unknown column")
	ErrRowOutOfRange = errors.New("row index out of range")
)

// ValidationError lists every invalid row of an edited price list.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s:\n%s", ErrInvalidRows, strings.Join(e.Issues, "\n"))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidRows
}

// BulkEdit changes one column on a set of selected rows. Percentage mode only
// applies to the Price column; any other field is replaced.
type BulkEdit struct {
	Field string   `json:"field"`
	Mode  BulkMode `json:"mode"`
	Value string   `json:"value"`
}

// ValidateRows checks every record and returns one message per problem.
// Row numbers count data rows from 1.
func ValidateRows(table *csvcodec.Table) []string {
	var issues []string
	for i, r := range table.Records {
		row := i + 1
		if strings.TrimSpace(r.Get(csvcodec.ColProductID)) == "" {
			issues = append(issues, fmt.Sprintf("Row %d: ProductID missing", row))
		}
		if strings.TrimSpace(r.Get(csvcodec.ColSize)) == "" {
			issues = append(issues, fmt.Sprintf("Row %d: Size missing", row))
		}
		if _, ok := numconv.LeadingFloat(r.Get(csvcodec.ColPrice)); !ok {
			issues = append(issues, fmt.Sprintf("Row %d: invalid price %q", row, r.Get(csvcodec.ColPrice)))
		}
		if _, ok := domain.LookupCurrency(r.Get(csvcodec.ColCurrency)); !ok {
			issues = append(issues, fmt.Sprintf("Row %d: invalid currency %q", row, r.Get(csvcodec.ColCurrency)))
		}
	}
	return issues
}

// SetCell edits a single value.
func SetCell(table *csvcodec.Table, row int, column, value string) error {
	if !table.Has(column) {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, column)
	}
	if row < 0 || row >= len(table.Records) {
		return fmt.Errorf("%w: %d", ErrRowOutOfRange, row)
	}
	table.Records[row].Values[column] = value
	return nil
}

// ApplyBulkEdit applies edit to the selected rows of a copy of table and
// returns the copy. Rows are processed in chunks of chunkSize with a
// cancellation check between chunks; the result does not depend on chunkSize.
func ApplyBulkEdit(ctx context.Context, table *csvcodec.Table, selected []int, edit BulkEdit, chunkSize int) (*csvcodec.Table, error) {
	if !table.Has(edit.Field) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, edit.Field)
	}
	for _, idx := range selected {
		if idx < 0 || idx >= len(table.Records) {
			return nil, fmt.Errorf("%w: %d", ErrRowOutOfRange, idx)
		}
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	out := table.Clone()
	percentage := edit.Field == csvcodec.ColPrice && edit.Mode == BulkPercentage
	pct := numconv.Float(edit.Value)

	for start := 0; start < len(selected); start += chunkSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+chunkSize, len(selected))
		for _, idx := range selected[start:end] {
			values := out.Records[idx].Values
			if percentage {
				price := numconv.Float(values[edit.Field])
				values[edit.Field] = strconv.FormatFloat(price*(1+pct/100), 'f', 2, 64)
			} else {
				values[edit.Field] = edit.Value
			}
		}
		runtime.Gosched()
	}

	return out, nil
}

// Save validates an edited table and writes it back into list. Items, the
// price map and the raw CSV are all regenerated from the table.
func Save(list *domain.PriceList, table *csvcodec.Table, editedBy string, now time.Time) error {
	if issues := ValidateRows(table); len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	items, err := csvcodec.PriceItems(table)
	if err != nil {
		return err
	}

	Apply(list, items)
	list.RawData = table.String()
	list.LastEditedBy = editedBy
	list.UpdatedAt = &now
	return nil
}

// Apply replaces the items of list and rebuilds the derived fields.
func Apply(list *domain.PriceList, items []domain.PriceItem) {
	list.Items = items
	list.ItemCount = len(items)
	list.PriceMap = BuildPriceMap(items)
}
