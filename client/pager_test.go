package client

import (
	"context"
	"sync"
	"testing"

	"github.com/ebogdum/imagedeck/metadata"
)

// gatedFetch serves pages of a single item named after the scope. Fetches
// for a gated scope block until released.
type gatedFetch struct {
	mu      sync.Mutex
	calls   int
	entered chan string
	gates   map[string]chan struct{}
}

func newGatedFetch(gated ...string) *gatedFetch {
	g := &gatedFetch{
		entered: make(chan string, 16),
		gates:   make(map[string]chan struct{}),
	}
	for _, scope := range gated {
		g.gates[scope] = make(chan struct{})
	}
	return g
}

func (g *gatedFetch) fetch(ctx context.Context, req pageRequest) (pageResult[string], error) {
	g.mu.Lock()
	g.calls++
	gate := g.gates[req.scope]
	g.mu.Unlock()

	g.entered <- req.scope
	if gate != nil {
		<-gate
	}
	return pageResult[string]{items: []string{req.scope}, more: true}, nil
}

func (g *gatedFetch) release(scope string) {
	close(g.gates[scope])
}

func identity(s string) string { return s }

func TestStaleResponseIsDiscarded(t *testing.T) {
	g := newGatedFetch("old")
	p := newPager("old", Options{}, g.fetch, identity)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		p.Refresh(ctx)
		close(done)
	}()
	<-g.entered

	p.SetScope(ctx, "new")
	<-g.entered

	s := p.State()
	if s.Scope != "new" || len(s.Items) != 1 || s.Items[0] != "new" {
		t.Fatalf("Unexpected state after scope change %+v", s)
	}

	g.release("old")
	<-done

	s = p.State()
	if len(s.Items) != 1 || s.Items[0] != "new" {
		t.Errorf("Expected stale page to be dropped, got %v", s.Items)
	}
	if s.Loading {
		t.Error("Expected loading to stay cleared by the current generation")
	}
	if s.Page != 1 {
		t.Errorf("Expected page 1, got %d", s.Page)
	}
}

func TestLoadMoreWhileLoadingIsNoop(t *testing.T) {
	g := newGatedFetch("slow")
	p := newPager("slow", Options{}, g.fetch, identity)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		p.LoadMore(ctx)
		close(done)
	}()
	<-g.entered

	if !p.State().Loading {
		t.Fatal("Expected loading state during fetch")
	}
	p.LoadMore(ctx)
	p.LoadMore(ctx)

	g.release("slow")
	<-done

	g.mu.Lock()
	calls := g.calls
	g.mu.Unlock()
	if calls != 1 {
		t.Errorf("Expected a single fetch, got %d", calls)
	}
	if s := p.State(); s.Loading || len(s.Items) != 1 {
		t.Errorf("Unexpected state %+v", s)
	}
}

func TestReplaceAndAppendSemantics(t *testing.T) {
	pages := map[int][]string{1: {"a", "b"}, 2: {"c"}}
	fetch := func(ctx context.Context, req pageRequest) (pageResult[string], error) {
		items := pages[req.page]
		return pageResult[string]{items: items, more: req.page < 2}, nil
	}
	p := newPager("root", Options{Limit: 2}, fetch, identity)
	ctx := context.Background()

	p.LoadMore(ctx)
	p.LoadMore(ctx)
	if s := p.State(); len(s.Items) != 3 || s.HasMore {
		t.Fatalf("Expected 3 items and no more, got %+v", s)
	}

	p.prepend("z")
	if s := p.State(); s.Items[0] != "z" || len(s.Items) != 4 {
		t.Fatalf("Expected prepended item, got %v", s.Items)
	}

	p.Refresh(ctx)
	s := p.State()
	if len(s.Items) != 2 || s.Items[0] != "a" || !s.HasMore {
		t.Errorf("Expected page 1 to replace the list, got %+v", s)
	}
}

func TestLimitClampedToServerMaximum(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{name: "unset", limit: 0, want: metadata.DefaultPageSize},
		{name: "within range", limit: 50, want: 50},
		{name: "above maximum", limit: 500, want: metadata.MaxPageSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got int
			fetch := func(ctx context.Context, req pageRequest) (pageResult[string], error) {
				got = req.limit
				return pageResult[string]{items: make([]string, req.limit), more: true}, nil
			}
			p := newPager("root", Options{Limit: tt.limit}, fetch, identity)
			p.LoadMore(context.Background())

			if got != tt.want {
				t.Errorf("requested limit %d, want %d", got, tt.want)
			}
			if !p.State().HasMore {
				t.Error("a full page must leave more to load")
			}
		})
	}
}
