package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/andresuchdata/purchasing-admin/backend-go/internal/csvcodec"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/domain"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/pricelist"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/realtime"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/repository"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/storage"
	"github.com/rs/zerolog/log"
)

const priceListArchivePrefix = "price-lists"

type PriceListService struct {
	repo      repository.PriceListRepository
	archive   storage.ObjectStorage
	hub       Broadcaster
	chunkSize int
	limit     int
	now       func() time.Time
}

// NewPriceListService creates the service. archive may be nil to skip
// archiving uploads; chunkSize and limit fall back to their defaults when
// not positive.
func NewPriceListService(repo repository.PriceListRepository, archive storage.ObjectStorage, hub Broadcaster, chunkSize, limit int) *PriceListService {
	if chunkSize <= 0 {
		chunkSize = pricelist.DefaultChunkSize
	}
	if limit <= 0 {
		limit = 10
	}
	return &PriceListService{
		repo:      repo,
		archive:   archive,
		hub:       orNoop(hub),
		chunkSize: chunkSize,
		limit:     limit,
		now:       time.Now,
	}
}

// Upload validates a price list CSV and stores it. Nothing is stored when
// any row is invalid.
func (s *PriceListService) Upload(ctx context.Context, name, data string) (*domain.PriceList, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: price list name is required", ErrInvalidRequest)
	}
	table, items, err := csvcodec.ParsePriceList(data)
	if err != nil {
		return nil, err
	}

	list := &domain.PriceList{
		Name:      strings.TrimSpace(name),
		CreatedAt: s.now().UTC(),
		Items:     items,
		RawData:   table.String(),
	}
	if err := s.repo.Create(ctx, list); err != nil {
		return nil, err
	}

	s.archiveRaw(ctx, list)
	log.Info().Str("price_list_id", list.ID).Int("items", list.ItemCount).Msg("price lists: uploaded")
	s.hub.Broadcast(realtime.Event{Type: realtime.EventPriceListChanged, Action: "create", ID: list.ID})
	return list, nil
}

// List returns the newest price lists up to the configured limit.
func (s *PriceListService) List(ctx context.Context) ([]domain.PriceListSummary, error) {
	return s.repo.List(ctx, s.limit)
}

func (s *PriceListService) Get(ctx context.Context, id string) (*domain.PriceList, error) {
	return s.repo.Get(ctx, id)
}

func (s *PriceListService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.hub.Broadcast(realtime.Event{Type: realtime.EventPriceListChanged, Action: "delete", ID: id})
	return nil
}

// DownloadCSV renders the stored items and a download file name.
func (s *PriceListService) DownloadCSV(ctx context.Context, id string) (data, filename string, err error) {
	list, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", "", err
	}
	return csvcodec.PriceListCSV(list.Items), fileName("price_list", list.Name, list.CreatedAt), nil
}

// Table returns the editable table of a price list. Lists stored without
// raw text are rendered from their items.
func (s *PriceListService) Table(ctx context.Context, id string) (*csvcodec.Table, error) {
	list, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return editableTable(list)
}

// SaveTable validates an edited table and replaces the items of the list.
func (s *PriceListService) SaveTable(ctx context.Context, id string, table *csvcodec.Table, editedBy string) (*domain.PriceList, error) {
	list, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, list, table, editedBy)
}

// BulkEdit applies one edit to the selected rows and saves the result.
func (s *PriceListService) BulkEdit(ctx context.Context, id string, selected []int, edit pricelist.BulkEdit, editedBy string) (*domain.PriceList, error) {
	list, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	table, err := editableTable(list)
	if err != nil {
		return nil, err
	}

	edited, err := pricelist.ApplyBulkEdit(ctx, table, selected, edit, s.chunkSize)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, list, edited, editedBy)
}

func (s *PriceListService) save(ctx context.Context, list *domain.PriceList, table *csvcodec.Table, editedBy string) (*domain.PriceList, error) {
	if err := pricelist.Save(list, table, editedBy, s.now().UTC()); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, list); err != nil {
		return nil, err
	}

	s.archiveRaw(ctx, list)
	log.Info().Str("price_list_id", list.ID).Str("edited_by", editedBy).Int("items", list.ItemCount).Msg("price lists: saved")
	s.hub.Broadcast(realtime.Event{Type: realtime.EventPriceListChanged, Action: "update", ID: list.ID})
	return list, nil
}

func (s *PriceListService) archiveRaw(ctx context.Context, list *domain.PriceList) {
	if s.archive == nil {
		return
	}
	key := storage.JoinKey(priceListArchivePrefix, list.ID+".csv")
	if err := s.archive.UploadObject(ctx, key, []byte(list.RawData), "text/csv"); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("price lists: archive failed")
	}
}

func editableTable(list *domain.PriceList) (*csvcodec.Table, error) {
	raw := list.RawData
	if strings.TrimSpace(raw) == "" {
		raw = csvcodec.PriceListCSV(list.Items)
	}
	table, err := csvcodec.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse stored price list %s: %w", list.ID, err)
	}
	return table, nil
}
