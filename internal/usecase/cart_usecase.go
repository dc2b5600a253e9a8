package usecase

import (
	"slices"
	"sync"

	"storefront/internal/domain/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CartListener は変更後のスナップショットを受け取る。
// 更新した側のgoroutineで、カートのロックを外した後に同期的に呼ばれる。
// 呼び出し元が別のロックを持ったまま更新しないこと。
// リスナーの中からCartStoreを更新してはいけない（通知が入れ子になる）。
type CartListener func(state model.CartState)

// CartStore はカート内容とカートパネルの開閉状態を持つ唯一の場所です。
// 画面側（ヘッダー、カートパネル、商品カード）はスナップショットを読むだけで、
// 更新は必ずここの操作を通す。操作は失敗しない。
type CartStore struct {
	mu      sync.Mutex
	items   []model.CartLineItem
	isOpen  bool
	version uint64

	subsMu sync.Mutex
	subs   map[uuid.UUID]CartListener
	order  []uuid.UUID

	log *zap.Logger
}

// DI
func NewCartStore(log *zap.Logger) *CartStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &CartStore{
		subs: map[uuid.UUID]CartListener{},
		log:  log.Named("cart"),
	}
}

// Snapshot は現在の状態のコピーを返す。
func (s *CartStore) Snapshot() model.CartState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe はリスナーを登録し、解除用の関数を返す。
func (s *CartStore) Subscribe(fn CartListener) (unsubscribe func()) {
	id := uuid.New()

	s.subsMu.Lock()
	s.subs[id] = fn
	s.order = append(s.order, id)
	s.subsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subsMu.Lock()
			defer s.subsMu.Unlock()
			delete(s.subs, id)
			s.order = slices.DeleteFunc(s.order, func(x uuid.UUID) bool { return x == id })
		})
	}
}

// AddItem はカートに追加（同一商品は数量+1）。
// 表示用の項目は追加時点の商品からコピーするので、後でカタログが変わっても明細は変わらない。
func (s *CartStore) AddItem(p model.Product) {
	s.mutate("add", func() bool {
		if i := s.indexLocked(p.ID); i >= 0 {
			s.items[i].Quantity++
			return true
		}
		s.items = append(s.items, model.NewCartLineItem(p))
		return true
	}, zap.Int64("id", p.ID))
}

// RemoveItem は明細を削除。無ければ何もしない。
func (s *CartStore) RemoveItem(id int64) {
	s.mutate("remove", func() bool {
		return s.removeLocked(id)
	}, zap.Int64("id", id))
}

// UpdateQuantity は数量を上書き（加算ではない）。
// 0以下なら削除、IDが無ければ何もしない。
func (s *CartStore) UpdateQuantity(id int64, quantity int) {
	s.mutate("update_quantity", func() bool {
		return s.setQuantityLocked(id, quantity)
	}, zap.Int64("id", id), zap.Int("quantity", quantity))
}

// IncrementItem はカートパネルの「＋」。
func (s *CartStore) IncrementItem(id int64) {
	s.stepQuantity(id, 1)
}

// DecrementItem はカートパネルの「－」。数量1なら削除になる。
func (s *CartStore) DecrementItem(id int64) {
	s.stepQuantity(id, -1)
}

// ClearCart は明細を全削除。開閉状態は変えない。
func (s *CartStore) ClearCart() {
	s.mutate("clear", func() bool {
		if len(s.items) == 0 {
			return false
		}
		s.items = nil
		return true
	})
}

func (s *CartStore) ToggleCart() {
	s.mutate("toggle", func() bool {
		s.isOpen = !s.isOpen
		return true
	})
}

func (s *CartStore) OpenCart() {
	s.setOpen(true)
}

func (s *CartStore) CloseCart() {
	s.setOpen(false)
}

func (s *CartStore) setOpen(open bool) {
	s.mutate("set_open", func() bool {
		if s.isOpen == open {
			return false
		}
		s.isOpen = open
		return true
	}, zap.Bool("open", open))
}

func (s *CartStore) stepQuantity(id int64, delta int) {
	s.mutate("step_quantity", func() bool {
		i := s.indexLocked(id)
		if i < 0 {
			return false
		}
		return s.setQuantityLocked(id, s.items[i].Quantity+delta)
	}, zap.Int64("id", id), zap.Int("delta", delta))
}

// mutate はロック内でfnを実行し、変化があればロック外で購読者へ通知する。
func (s *CartStore) mutate(op string, fn func() bool, fields ...zap.Field) {
	s.mu.Lock()
	changed := fn()
	if changed {
		s.version++
	}
	state := s.snapshotLocked()
	s.mu.Unlock()

	if !changed {
		s.log.Debug("cart no-op", append(fields, zap.String("op", op))...)
		return
	}

	s.log.Debug("cart updated", append(fields,
		zap.String("op", op),
		zap.Uint64("version", state.Version),
		zap.Int("item_count", state.ItemCount()),
		zap.String("total", state.Total().StringFixed(2)),
	)...)

	s.notify(state)
}

func (s *CartStore) notify(state model.CartState) {
	s.subsMu.Lock()
	listeners := make([]CartListener, 0, len(s.order))
	for _, id := range s.order {
		listeners = append(listeners, s.subs[id])
	}
	s.subsMu.Unlock()

	for _, fn := range listeners {
		// 各リスナーには独立したコピーを渡す
		fn(cloneState(state))
	}
}

func (s *CartStore) setQuantityLocked(id int64, quantity int) bool {
	if quantity <= 0 {
		return s.removeLocked(id)
	}
	i := s.indexLocked(id)
	if i < 0 {
		return false
	}
	if s.items[i].Quantity == quantity {
		return false
	}
	s.items[i].Quantity = quantity
	return true
}

func (s *CartStore) removeLocked(id int64) bool {
	i := s.indexLocked(id)
	if i < 0 {
		return false
	}
	s.items = slices.Delete(s.items, i, i+1)
	return true
}

func (s *CartStore) indexLocked(id int64) int {
	return slices.IndexFunc(s.items, func(it model.CartLineItem) bool { return it.ID == id })
}

func (s *CartStore) snapshotLocked() model.CartState {
	return model.CartState{
		Items:   slices.Clone(s.items),
		IsOpen:  s.isOpen,
		Version: s.version,
	}
}

func cloneState(st model.CartState) model.CartState {
	st.Items = slices.Clone(st.Items)
	return st
}
