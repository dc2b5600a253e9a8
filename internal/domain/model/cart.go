package model

import "github.com/shopspring/decimal"

// カートの状態のスナップショット。
// 合計と件数は保存せず、読むたびに明細から計算する。
type CartState struct {
	Items   []CartLineItem
	IsOpen  bool
	Version uint64
}

// ItemCount は数量の合計。
func (s CartState) ItemCount() int {
	n := 0
	for _, it := range s.Items {
		n += it.Quantity
	}
	return n
}

// Total は単価×数量の合計。
func (s CartState) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range s.Items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// Find はIDの明細を返す。
func (s CartState) Find(id int64) (CartLineItem, bool) {
	for _, it := range s.Items {
		if it.ID == id {
			return it, true
		}
	}
	return CartLineItem{}, false
}
