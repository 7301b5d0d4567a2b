package recon

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supplyhub/cart-service/internal/domain"
)

type mockLister struct {
	m     sync.Mutex
	ids   []string
	err   error
	calls int
}

func (l *mockLister) ListProductIDs(context.Context) ([]string, error) {
	l.m.Lock()
	defer l.m.Unlock()
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	return l.ids, nil
}

func (l *mockLister) callCount() int {
	l.m.Lock()
	defer l.m.Unlock()
	return l.calls
}

func items(ids ...string) []domain.CartItem {
	out := make([]domain.CartItem, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.CartItem{ID: id, Quantity: 1})
	}
	return out
}

func TestValidate_PartitionsByCatalog(t *testing.T) {
	lister := &mockLister{ids: []string{"p1", "p3", "p9"}}
	sut := NewService(lister, zerolog.Nop())

	out := sut.Validate(context.Background(), items("p1", "p2", "p3"))

	require.Len(t, out.Valid, 2)
	assert.Equal(t, "p1", out.Valid[0].ID)
	assert.Equal(t, "p3", out.Valid[1].ID)
	require.Len(t, out.Removed, 1)
	assert.Equal(t, "p2", out.Removed[0].ID)
	assert.Contains(t, out.ValidIDs, "p9")
}

func TestValidate_FailOpen(t *testing.T) {
	lister := &mockLister{err: fmt.Errorf("connection refused")}
	sut := NewService(lister, zerolog.Nop())

	in := items("p1", "p2")
	out := sut.Validate(context.Background(), in)

	assert.Empty(t, out.Removed)
	assert.Equal(t, in, out.Valid, "failure must keep the input untouched")
	assert.Nil(t, out.ValidIDs)
}

func TestValidate_EmptyCartShortCircuits(t *testing.T) {
	lister := &mockLister{ids: []string{"p1"}}
	sut := NewService(lister, zerolog.Nop())

	out := sut.Validate(context.Background(), nil)

	assert.Empty(t, out.Valid)
	assert.Empty(t, out.Removed)
	assert.Equal(t, 0, lister.callCount(), "empty cart must not hit the catalog")
}

func TestValidate_AllValid(t *testing.T) {
	lister := &mockLister{ids: []string{"p1", "p2"}}
	sut := NewService(lister, zerolog.Nop())

	out := sut.Validate(context.Background(), items("p1", "p2"))

	assert.Len(t, out.Valid, 2)
	assert.Empty(t, out.Removed)
}
