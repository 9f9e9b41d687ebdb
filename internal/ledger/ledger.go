package ledger

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tomashops/tomashops-backend/pkg/db/models"
	"github.com/tomashops/tomashops-backend/pkg/enums"
	pkgerrors "github.com/tomashops/tomashops-backend/pkg/errors"
)

// Repository defines persistence operations for the money-movement ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Append(ctx context.Context, event *models.LedgerEvent) error
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.LedgerEvent, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a ledger repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Append(ctx context.Context, event *models.LedgerEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.LedgerEvent, error) {
	var events []models.LedgerEvent
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

// Entry describes one ledger row to append; metadata keys carry the
// processor-side identifiers needed for reconciliation.
type Entry struct {
	OrderID      uuid.UUID
	BuyerUserID  uuid.UUID
	SellerUserID uuid.UUID
	Type         enums.LedgerEventType
	AmountCents  int64
	Metadata     map[string]string
}

// Append validates and writes one ledger entry through the given repository.
func Append(ctx context.Context, repo Repository, entry Entry) error {
	if repo == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "ledger repo required")
	}
	if entry.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !entry.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid ledger event type")
	}

	var metadata json.RawMessage
	if len(entry.Metadata) > 0 {
		raw, err := json.Marshal(entry.Metadata)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode ledger metadata")
		}
		metadata = raw
	}

	row := &models.LedgerEvent{
		OrderID:      entry.OrderID,
		BuyerUserID:  entry.BuyerUserID,
		SellerUserID: entry.SellerUserID,
		Type:         entry.Type,
		AmountCents:  entry.AmountCents,
		Metadata:     metadata,
	}
	if err := repo.Append(ctx, row); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append ledger event")
	}
	return nil
}
