package model

// DailySales is one day of the sales series.
type DailySales struct {
	Date      string  `json:"date"`
	Sales     float64 `json:"sales"`
	NumOrders int     `json:"numOrders"`
}

// SalesReport is the gap-filled sales series for a date range.
type SalesReport struct {
	TotalSales     float64      `json:"totalSales"`
	TotalNumOrders int          `json:"totalNumOrders"`
	Sales          []DailySales `json:"sales"`
}
