package client

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/ebogdum/imagedeck/metadata"
)

// Notifier receives every error a list records. It runs without the list's
// lock held.
type Notifier func(err error)

// State is a snapshot of an incrementally loaded list. Page is the page
// most recently requested for the current scope and sort; zero means none yet.
type State[T any] struct {
	Items   []T
	Loading bool
	Err     error
	Page    int
	HasMore bool
	Sort    metadata.SortOptions
	Scope   string
}

// Options configures a list
type Options struct {
	Limit    int
	Sort     metadata.SortOptions
	Notifier Notifier
	Logger   *zap.Logger
}

// pageRequest describes one fetch
type pageRequest struct {
	scope  string
	page   int
	limit  int
	sort   metadata.SortOptions
	cursor string
}

// pageResult is one fetched page. More reports whether the server has
// records past it; Cursor continues after it when the endpoint supports one.
type pageResult[T any] struct {
	items  []T
	more   bool
	cursor string
}

type fetchFunc[T any] func(ctx context.Context, req pageRequest) (pageResult[T], error)

// pager holds the shared list state machine. Every scope or sort change
// starts a new generation; results of older generations are dropped.
type pager[T any] struct {
	mu         sync.Mutex
	state      State[T]
	generation uint64
	cursor     string
	loaded     int
	limit      int

	fetch  fetchFunc[T]
	idOf   func(T) string
	notify Notifier
	logger *zap.Logger
}

func newPager[T any](scope string, opts Options, fetch fetchFunc[T], idOf func(T) string) *pager[T] {
	if opts.Limit <= 0 {
		opts.Limit = metadata.DefaultPageSize
	}
	// The server caps pages at MaxPageSize; asking for more would end the
	// list early once a short page comes back.
	if opts.Limit > metadata.MaxPageSize {
		opts.Limit = metadata.MaxPageSize
	}
	if opts.Sort.Field == "" && opts.Sort.Direction == "" {
		opts.Sort = metadata.DefaultSort()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &pager[T]{
		state: State[T]{
			Items:   []T{},
			HasMore: true,
			Sort:    opts.Sort,
			Scope:   scope,
		},
		limit:  opts.Limit,
		fetch:  fetch,
		idOf:   idOf,
		notify: opts.Notifier,
		logger: opts.Logger,
	}
}

// State returns a copy of the current list state
func (p *pager[T]) State() State[T] {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := p.state
	s.Items = append([]T(nil), p.state.Items...)
	return s
}

// SetScope switches to another parent/folder and loads its first page
func (p *pager[T]) SetScope(ctx context.Context, scope string) {
	p.mu.Lock()
	p.state.Scope = scope
	req, gen := p.resetLocked()
	p.mu.Unlock()

	p.run(ctx, req, gen)
}

// SetSort changes the order and reloads from the first page
func (p *pager[T]) SetSort(ctx context.Context, sort metadata.SortOptions) {
	p.mu.Lock()
	p.state.Sort = sort
	req, gen := p.resetLocked()
	p.mu.Unlock()

	p.run(ctx, req, gen)
}

// Refresh reloads the first page of the current scope and sort
func (p *pager[T]) Refresh(ctx context.Context) {
	p.mu.Lock()
	req, gen := p.resetLocked()
	p.mu.Unlock()

	p.run(ctx, req, gen)
}

// LoadMore fetches the page after the last one and appends it. It does
// nothing while a fetch is running or once the list is exhausted.
func (p *pager[T]) LoadMore(ctx context.Context) {
	p.mu.Lock()
	if p.state.Loading || !p.state.HasMore {
		p.mu.Unlock()
		return
	}
	p.state.Loading = true
	p.state.Err = nil
	p.state.Page = p.loaded + 1
	req := pageRequest{
		scope: p.state.Scope,
		page:  p.state.Page,
		limit: p.limit,
		sort:  p.state.Sort,
	}
	if req.page > 1 {
		req.cursor = p.cursor
	}
	gen := p.generation
	p.mu.Unlock()

	p.run(ctx, req, gen)
}

// resetLocked empties the list, starts a new generation and returns the
// request for its first page.
func (p *pager[T]) resetLocked() (pageRequest, uint64) {
	p.generation++
	p.cursor = ""
	p.loaded = 0
	p.state.Items = []T{}
	p.state.Page = 1
	p.state.HasMore = true
	p.state.Err = nil
	p.state.Loading = true

	return pageRequest{
		scope: p.state.Scope,
		page:  1,
		limit: p.limit,
		sort:  p.state.Sort,
	}, p.generation
}

func (p *pager[T]) run(ctx context.Context, req pageRequest, gen uint64) {
	result, err := p.fetch(ctx, req)

	p.mu.Lock()
	if gen != p.generation {
		p.mu.Unlock()
		p.logger.Debug("Discarding stale page",
			zap.String("scope", req.scope),
			zap.Int("page", req.page))
		return
	}

	p.state.Loading = false
	if err != nil {
		p.state.Err = err
		p.mu.Unlock()
		p.report(err)
		return
	}

	if req.page > 1 {
		p.state.Items = append(p.state.Items, result.items...)
	} else {
		p.state.Items = append([]T{}, result.items...)
	}
	p.loaded = req.page
	p.cursor = result.cursor
	if len(result.items) == 0 || !result.more {
		p.state.HasMore = false
	}
	p.mu.Unlock()
}

// prepend adds a newly created item to the front of the list
func (p *pager[T]) prepend(item T) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.state.Err = nil
	p.state.Items = append([]T{item}, p.state.Items...)
}

// remove drops the item with the given id from the list
func (p *pager[T]) remove(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.state.Err = nil
	kept := p.state.Items[:0:0]
	for _, item := range p.state.Items {
		if p.idOf(item) != id {
			kept = append(kept, item)
		}
	}
	p.state.Items = kept
}

// find returns the listed item with the given id
func (p *pager[T]) find(id string) (T, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, item := range p.state.Items {
		if p.idOf(item) == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// fail records an error from a mutating call
func (p *pager[T]) fail(err error) error {
	p.mu.Lock()
	p.state.Err = err
	p.mu.Unlock()

	p.report(err)
	return err
}

func (p *pager[T]) report(err error) {
	p.logger.Warn("List operation failed", zap.Error(err))
	if p.notify != nil {
		p.notify(err)
	}
}

// replace swaps the listed item with the same id for item
func (p *pager[T]) replace(item T) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.state.Err = nil
	id := p.idOf(item)
	for i := range p.state.Items {
		if p.idOf(p.state.Items[i]) == id {
			p.state.Items[i] = item
			return
		}
	}
}
