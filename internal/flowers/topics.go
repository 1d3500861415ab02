package flowers

const (
	TopicStockLow = "flowers.stock.low"
)
