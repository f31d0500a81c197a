package allocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// BatchRecord is the persisted shape of a batch row. Qty is the REMAINING
// quantity: allocations decrement it in place, allocation rows keep the
// audit trail.
type BatchRecord struct {
	ID        string     `json:"id"`
	Reference string     `json:"reference"`
	SKU       string     `json:"sku"`
	Qty       int        `json:"qty"`
	ETA       *time.Time `json:"eta,omitempty"`
}

type Repo struct {
	DB  *pgxpool.Pool
	Log *zap.SugaredLogger
}

// LoadProductVersion reads the version stamp for a SKU inside tx.
// found=false means the SKU has no product aggregate at all.
func (r *Repo) LoadProductVersion(ctx context.Context, tx pgx.Tx, sku string) (version int, found bool, err error) {
	err = tx.QueryRow(ctx, `SELECT version_number FROM product WHERE sku=$1`, sku).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("load product version: %w", err)
	}
	return version, true, nil
}

// LoadBatches builds the domain batches for a SKU from their remaining
// quantities.
func (r *Repo) LoadBatches(ctx context.Context, tx pgx.Tx, sku string) ([]*Batch, error) {
	rows, err := tx.Query(ctx, `SELECT reference, sku, qty, eta FROM batch
                              WHERE sku=$1 ORDER BY eta NULLS FIRST, reference`, sku)
	if err != nil {
		return nil, fmt.Errorf("load batches: %w", err)
	}
	defer rows.Close()

	var out []*Batch
	for rows.Next() {
		var (
			ref, s string
			qty    int
			eta    *time.Time
		)
		if err := rows.Scan(&ref, &s, &qty, &eta); err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		out = append(out, NewBatch(ref, s, qty, eta))
	}
	return out, rows.Err()
}

func (r *Repo) InsertProduct(ctx context.Context, tx pgx.Tx, sku string, version int) error {
	if _, err := tx.Exec(ctx, `INSERT INTO product(sku, version_number) VALUES ($1,$2)`, sku, version); err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *Repo) InsertBatch(ctx context.Context, tx pgx.Tx, rec BatchRecord) error {
	if _, err := tx.Exec(ctx, `INSERT INTO batch(id, reference, sku, qty, eta)
	                           VALUES ($1,$2,$3,$4,$5)`,
		rec.ID, rec.Reference, rec.SKU, rec.Qty, rec.ETA); err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}
	return nil
}

func (r *Repo) UpdateBatchQuantity(ctx context.Context, tx pgx.Tx, reference string, newQty int) error {
	ct, err := tx.Exec(ctx, `UPDATE batch SET qty=$2 WHERE reference=$1`, reference, newQty)
	if err != nil {
		return fmt.Errorf("update batch quantity: %w", err)
	}
	if ct.RowsAffected() != 1 {
		return fmt.Errorf("update batch quantity: batch %s not found", reference)
	}
	return nil
}

// UpdateProductVersion bumps the version stamp only when nobody else has.
// RowsAffected 0 = a concurrent writer already advanced it.
func (r *Repo) UpdateProductVersion(ctx context.Context, tx pgx.Tx, sku string, oldVersion, newVersion int) error {
	ct, err := tx.Exec(ctx, `UPDATE product SET version_number=$1
	                         WHERE sku=$2 AND version_number=$3`, newVersion, sku, oldVersion)
	if err != nil {
		return fmt.Errorf("update product version: %w", err)
	}
	if ct.RowsAffected() != 1 {
		return ErrVersionConflict
	}
	return nil
}

func (r *Repo) InsertAllocation(ctx context.Context, tx pgx.Tx, batchRef string, line OrderLine) error {
	if _, err := tx.Exec(ctx, `INSERT INTO allocation(id, batch_ref, order_id, sku, qty)
	                           VALUES ($1,$2,$3,$4,$5)
	                           ON CONFLICT (batch_ref, order_id, sku) DO NOTHING`,
		uuid.NewString(), batchRef, line.OrderID, line.SKU, line.Qty); err != nil {
		return fmt.Errorf("insert allocation: %w", err)
	}
	return nil
}

// AllocateTx runs the full optimistic-concurrency commit protocol for one
// order line: load aggregate -> allocate in memory -> re-check the persisted
// version -> write decrement + version bump atomically.
func (r *Repo) AllocateTx(ctx context.Context, line OrderLine) (AllocationResult, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return AllocationResult{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()
	state := TxStarted

	version, found, err := r.LoadProductVersion(ctx, tx, line.SKU)
	if err != nil {
		return AllocationResult{}, err
	}
	if !found {
		r.advance(line, &state, TxDomainAborted)
		return AllocationResult{}, InvalidSKUError{SKU: line.SKU}
	}
	batches, err := r.LoadBatches(ctx, tx, line.SKU)
	if err != nil {
		return AllocationResult{}, err
	}
	r.advance(line, &state, TxValidated)

	product := &Product{SKU: line.SKU, Batches: batches, Version: version}
	res, err := product.Allocate(line)
	if err != nil {
		r.advance(line, &state, TxDomainAborted)
		return AllocationResult{}, err
	}
	r.advance(line, &state, TxAllocated)

	// Re-read the persisted version right before writing; a concurrent writer
	// may have committed since our first read. The conditional UPDATE below
	// closes the remaining window.
	persisted, _, err := r.LoadProductVersion(ctx, tx, line.SKU)
	if err != nil {
		return AllocationResult{}, err
	}
	if StaleVersion(persisted, res.Version) {
		r.advance(line, &state, TxConflictAborted)
		return AllocationResult{}, ErrVersionConflict
	}

	if err := r.UpdateProductVersion(ctx, tx, line.SKU, version, res.Version); err != nil {
		if errors.Is(err, ErrVersionConflict) {
			r.advance(line, &state, TxConflictAborted)
		}
		return AllocationResult{}, err
	}
	chosen := batchByRef(batches, res.BatchRef)
	if err := r.UpdateBatchQuantity(ctx, tx, res.BatchRef, chosen.AvailableQuantity()); err != nil {
		return AllocationResult{}, err
	}
	if err := r.InsertAllocation(ctx, tx, res.BatchRef, line); err != nil {
		return AllocationResult{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return AllocationResult{}, fmt.Errorf("commit: %w", err)
	}
	r.advance(line, &state, TxCommitted)
	return res, nil
}

// AddBatchTx records new stock inside one transaction. Intake only ever adds
// capacity, so it needs the atomic boundary but no version comparison.
func (r *Repo) AddBatchTx(ctx context.Context, reference, sku string, qty int, eta *time.Time) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, found, err := r.LoadProductVersion(ctx, tx, sku)
	if err != nil {
		return err
	}
	if !found {
		if err := r.InsertProduct(ctx, tx, sku, 1); err != nil {
			return err
		}
	}
	rec := BatchRecord{
		ID:        uuid.NewString(),
		Reference: reference,
		SKU:       sku,
		Qty:       qty,
		ETA:       eta,
	}
	if err := r.InsertBatch(ctx, tx, rec); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ListBatches is the read path for the API; no transaction needed.
func (r *Repo) ListBatches(ctx context.Context, sku string) ([]BatchRecord, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, reference, sku, qty, eta FROM batch
	                              WHERE sku=$1 ORDER BY eta NULLS FIRST, reference`, sku)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()

	var out []BatchRecord
	for rows.Next() {
		var rec BatchRecord
		if err := rows.Scan(&rec.ID, &rec.Reference, &rec.SKU, &rec.Qty, &rec.ETA); err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// GetAllocation looks up which batch an order line landed on.
func (r *Repo) GetAllocation(ctx context.Context, orderID, sku string) (string, bool, error) {
	var batchRef string
	err := r.DB.QueryRow(ctx, `SELECT batch_ref FROM allocation
	                           WHERE order_id=$1 AND sku=$2`, orderID, sku).Scan(&batchRef)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get allocation: %w", err)
	}
	return batchRef, true, nil
}

func (r *Repo) advance(line OrderLine, from *TxState, to TxState) {
	if r.Log != nil {
		if !CanTransition(*from, to) {
			r.Log.Warnw("illegal tx transition", "from", *from, "to", to, "order_id", line.OrderID)
		}
		r.Log.Debugw("allocation tx", "state", to, "order_id", line.OrderID, "sku", line.SKU)
	}
	*from = to
}

func batchByRef(batches []*Batch, ref string) *Batch {
	for _, b := range batches {
		if b.Reference == ref {
			return b
		}
	}
	return nil
}
