package allocation

const (
	TopicBatchCreate      = "stock.batch.create"
	TopicAllocateRequired = "stock.allocate.required"
	TopicOutOfStock       = "stock.out_of_stock"
)

// Partition key = sku, supaya semua event 1 product maintain urutan.
func PartitionKey(sku string) []byte { return []byte(sku) }
