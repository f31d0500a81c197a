package allocation

// AllocationResult pairs the chosen batch reference with the version number
// the aggregate wants to persist.
type AllocationResult struct {
	BatchRef string
	Version  int
}

// Product owns every batch for one SKU plus the version number that guards
// concurrent writers. It is the only place allocation outcomes are decided;
// two allocations against the same SKU are conflicting writes on Version,
// allocations against different SKUs never conflict.
type Product struct {
	SKU     string
	Batches []*Batch
	Version int
}

func NewProduct(sku string, batches []*Batch) *Product {
	return &Product{SKU: sku, Batches: batches, Version: 1}
}

// Allocate picks the candidate batch with the smallest remaining quantity
// (best fit, unlike the flat-list policy's arrival order) and returns its
// reference plus the bumped version number.
func (p *Product) Allocate(line OrderLine) (AllocationResult, error) {
	if line.SKU != p.SKU {
		return AllocationResult{}, InvalidSKUError{SKU: line.SKU}
	}
	var best *Batch
	for _, b := range p.Batches {
		if !b.CanAllocate(line) {
			continue
		}
		if best == nil || b.AvailableQuantity() < best.AvailableQuantity() {
			best = b
		}
	}
	if best == nil {
		return AllocationResult{}, OutOfStockError{SKU: line.SKU}
	}
	best.Allocate(line)
	p.Version++
	return AllocationResult{BatchRef: best.Reference, Version: p.Version}, nil
}

// StaleVersion reports whether a persisted version has already reached the
// version a transaction wants to write. Pure so the commit check is testable
// without storage.
func StaleVersion(persisted, next int) bool {
	return persisted >= next
}
