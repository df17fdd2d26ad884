package portfolio

import (
	"sync"

	"github.com/stockroomapp/stockroom_bot/internal/model"
)

// Store merges the independently refreshed data sources (properties, lots,
// events, dividends, online quotes) into one keyed-by-symbol view. Every
// Apply* call is idempotent: feeding the same rows twice leaves the view
// unchanged. Only ApplyProperties removes entries; the other sources may add
// or update but never delete.
type Store struct {
	mu        sync.Mutex
	items     map[string]*model.StockItem
	portfolio string

	subs []chan []model.StockItem
}

func NewStore() *Store {
	return &Store{items: make(map[string]*model.StockItem)}
}

// Subscribe returns a channel that receives the full merged snapshot after
// every apply. The latest snapshot is dropped when the subscriber lags.
func (s *Store) Subscribe() <-chan []model.StockItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan []model.StockItem, 1)
	s.subs = append(s.subs, ch)
	return ch
}

// SelectedPortfolio returns the current portfolio partition; "" is the
// standard portfolio.
func (s *Store) SelectedPortfolio() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.portfolio
}

// SetSelectedPortfolio switches the active partition. The view stays as-is
// until the next ApplyProperties delivers the rows of the new partition.
func (s *Store) SetSelectedPortfolio(portfolio string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.portfolio = portfolio
}

// ApplyProperties is the authoritative source for which symbols exist in the
// view. Rows outside the selected portfolio are ignored; entries whose symbol
// is absent from the matching rows are removed. When the selected portfolio
// itself no longer exists among the rows, the selection reverts to the
// standard portfolio.
func (s *Store) ApplyProperties(rows []model.StockProperties) {
	s.mu.Lock()

	if s.portfolio != "" {
		found := false
		for _, p := range rows {
			if p.Portfolio == s.portfolio {
				found = true
				break
			}
		}
		if !found {
			s.portfolio = ""
		}
	}

	seen := make(map[string]bool, len(rows))
	for _, p := range rows {
		if p.Portfolio != s.portfolio {
			continue
		}
		seen[p.Symbol] = true
		item := s.item(p.Symbol)
		item.Properties = p
	}
	for symbol := range s.items {
		if !seen[symbol] {
			delete(s.items, symbol)
		}
	}

	s.publishLocked()
}

// ApplyLots replaces each symbol's lot list. A symbol unknown to the view is
// created when its properties belong to the selected portfolio.
func (s *Store) ApplyLots(rows []model.SymbolLots) {
	s.mu.Lock()
	for _, r := range rows {
		if r.Properties.Portfolio != s.portfolio {
			continue
		}
		item := s.item(r.Properties.Symbol)
		item.Lots = r.Lots
	}
	s.publishLocked()
}

// ApplyEvents replaces each symbol's event list, creating entries the same
// way ApplyLots does.
func (s *Store) ApplyEvents(rows []model.SymbolEvents) {
	s.mu.Lock()
	for _, r := range rows {
		if r.Properties.Portfolio != s.portfolio {
			continue
		}
		item := s.item(r.Properties.Symbol)
		item.Events = r.Events
	}
	s.publishLocked()
}

// ApplyDividends replaces each symbol's dividend list, creating entries the
// same way ApplyLots does.
func (s *Store) ApplyDividends(rows []model.SymbolDividends) {
	s.mu.Lock()
	for _, r := range rows {
		if r.Properties.Portfolio != s.portfolio {
			continue
		}
		item := s.item(r.Properties.Symbol)
		item.Dividends = r.Dividends
	}
	s.publishLocked()
}

// ApplyQuotes attaches online market data to entries that already exist.
// Quotes never create entries: a quote for an unknown symbol is dropped.
func (s *Store) ApplyQuotes(quotes []model.Quote) {
	s.mu.Lock()
	for _, q := range quotes {
		item, ok := s.items[q.Symbol]
		if !ok {
			continue
		}
		item.Quote = q
	}
	s.publishLocked()
}

// Snapshot returns a copy of the merged view.
func (s *Store) Snapshot() []model.StockItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Symbols returns the symbols currently present in the view.
func (s *Store) Symbols() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	symbols := make([]string, 0, len(s.items))
	for symbol := range s.items {
		symbols = append(symbols, symbol)
	}
	return symbols
}

// Get returns the merged entry for a symbol.
func (s *Store) Get(symbol string) (model.StockItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[symbol]
	if !ok {
		return model.StockItem{}, false
	}
	return *item, true
}

func (s *Store) item(symbol string) *model.StockItem {
	item, ok := s.items[symbol]
	if !ok {
		item = &model.StockItem{Properties: model.StockProperties{Symbol: symbol}}
		s.items[symbol] = item
	}
	return item
}

func (s *Store) snapshotLocked() []model.StockItem {
	snapshot := make([]model.StockItem, 0, len(s.items))
	for _, item := range s.items {
		snapshot = append(snapshot, *item)
	}
	return snapshot
}

// publishLocked fans the snapshot out to subscribers and unlocks the store.
func (s *Store) publishLocked() {
	snapshot := s.snapshotLocked()
	subs := s.subs
	s.mu.Unlock()
	for _, ch := range subs {
		select {
		case ch <- snapshot:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snapshot:
			default:
			}
		}
	}
}
