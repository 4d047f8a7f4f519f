package orders

const (
	TopicOrderPlaced    = "storefront.order.placed"
	TopicOrderCancelled = "storefront.order.cancelled"
)

// Partition key = order_id, so every event of one order keeps its order.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
