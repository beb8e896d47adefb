package drive

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/andresuchdata/purchasing-admin/backend-go/internal/domain"
	"github.com/rs/zerolog/log"
)

// PriceListUploader stores an imported price list.
type PriceListUploader interface {
	Upload(ctx context.Context, name, data string) (*domain.PriceList, error)
}

// ImportService turns supplier price list files in Drive into stored price lists.
type ImportService struct {
	files    Files
	uploader PriceListUploader
}

func NewImportService(files Files, uploader PriceListUploader) *ImportService {
	return &ImportService{
		files:    files,
		uploader: uploader,
	}
}

// Supported reports whether the file can be imported as a price list.
func Supported(f *File) bool {
	switch f.MimeType {
	case MimeCSV, MimeXLSX, MimeSpreadsheet:
		return true
	}
	ext := strings.ToLower(filepath.Ext(f.Name))
	return ext == ".csv" || ext == ".xlsx"
}

// ImportFile downloads one file and uploads it as a price list named after
// the file.
func (s *ImportService) ImportFile(ctx context.Context, fileID string) (*domain.PriceList, error) {
	file, err := s.files.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	return s.importFile(ctx, file)
}

func (s *ImportService) importFile(ctx context.Context, file *File) (*domain.PriceList, error) {
	if !Supported(file) {
		return nil, fmt.Errorf("unsupported file type %q for %s", file.MimeType, file.Name)
	}

	// 1. Download file from Drive
	var buf bytes.Buffer
	if err := s.files.DownloadFile(ctx, file, &buf); err != nil {
		return nil, err
	}

	// 2. Convert workbooks to CSV text
	data := buf.String()
	if isXLSX(file) {
		converted, err := xlsxToCSV(&buf)
		if err != nil {
			return nil, fmt.Errorf("failed to convert %s to csv: %w", file.Name, err)
		}
		data = converted
	}

	// 3. Validate and store
	name := strings.TrimSuffix(file.Name, filepath.Ext(file.Name))
	list, err := s.uploader.Upload(ctx, name, data)
	if err != nil {
		return nil, fmt.Errorf("failed to import %s: %w", file.Name, err)
	}

	log.Info().
		Str("file", file.Name).
		Str("price_list_id", list.ID).
		Int("items", list.ItemCount).
		Msg("drive: price list imported")
	return list, nil
}

func isXLSX(f *File) bool {
	return f.MimeType == MimeXLSX || strings.EqualFold(filepath.Ext(f.Name), ".xlsx")
}
