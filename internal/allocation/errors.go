package allocation

import (
	"errors"
	"fmt"
)

// ErrVersionConflict means a concurrent writer advanced the product version
// between this transaction's read and its commit. The whole transaction is
// rolled back; the caller decides whether to retry.
var ErrVersionConflict = errors.New("product version conflict")

// InvalidSKUError: the requested SKU has no product aggregate at all.
type InvalidSKUError struct{ SKU string }

func (e InvalidSKUError) Error() string { return fmt.Sprintf("invalid sku %s", e.SKU) }

// OutOfStockError: the SKU is known but no batch can satisfy the line.
type OutOfStockError struct{ SKU string }

func (e OutOfStockError) Error() string { return fmt.Sprintf("out of stock for sku %s", e.SKU) }
