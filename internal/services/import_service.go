package services

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mrlokans/bookstore/internal/entities"
	"github.com/mrlokans/bookstore/internal/errs"
	"github.com/mrlokans/bookstore/internal/mirror"
)

// ImportService records stock deliveries from suppliers.
type ImportService struct {
	store ImportStore
	sync  *MirrorSync
	now   func() time.Time
}

func NewImportService(store ImportStore, sync *MirrorSync) *ImportService {
	return &ImportService{store: store, sync: sync, now: time.Now}
}

// CreateImport opens an import batch with a zero total. A nil date means now.
func (s *ImportService) CreateImport(ctx context.Context, code string, date *time.Time, supplier string) (Outcome, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return Outcome{}, errs.Newf(errs.KindInvalid, "imports.create", "import code is required")
	}
	batch := &entities.ImportBatch{Code: code, ImportDate: s.now(), Supplier: strings.TrimSpace(supplier)}
	if date != nil {
		batch.ImportDate = *date
	}
	if err := s.store.Create(ctx, batch); err != nil {
		return Outcome{}, err
	}
	return Outcome{
		ID:        batch.ID,
		MirrorErr: s.sync.write(ctx, mirror.CollectionImports, batch.ID, importDocument(batch)),
	}, nil
}

// AddImportLine adds qty copies of a book to stock and the line's subtotal to
// the batch total, then mirrors the batch with its new total.
func (s *ImportService) AddImportLine(ctx context.Context, importID, bookID uint, qty int, unitPrice decimal.Decimal) (Outcome, error) {
	line := &entities.ImportDetail{ImportID: importID, BookID: bookID, Quantity: qty, UnitPrice: unitPrice}
	if err := s.store.AddLine(ctx, line); err != nil {
		return Outcome{}, err
	}

	batch, err := s.store.Get(ctx, importID)
	if err != nil {
		return Outcome{ID: line.ID, MirrorErr: s.sync.track(ctx, mirror.CollectionImports, importID, err)}, nil
	}
	return Outcome{
		ID:        line.ID,
		MirrorErr: s.sync.upsert(ctx, mirror.CollectionImports, importID, importDocument(batch)),
	}, nil
}

func (s *ImportService) GetImport(ctx context.Context, importID uint) (*entities.ImportBatch, error) {
	return s.store.Get(ctx, importID)
}

func (s *ImportService) ListImports(ctx context.Context) ([]entities.ImportBatch, error) {
	list, err := s.store.List(ctx)
	if err != nil {
		return []entities.ImportBatch{}, err
	}
	return list, nil
}

// DeleteImport removes a batch and its lines, taking their stock back out.
func (s *ImportService) DeleteImport(ctx context.Context, importID uint) (Outcome, error) {
	if err := s.store.Delete(ctx, importID); err != nil {
		return Outcome{}, err
	}
	return Outcome{ID: importID, MirrorErr: s.sync.remove(ctx, mirror.CollectionImports, importID)}, nil
}
