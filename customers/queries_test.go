package customers

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/posalpro/go-dashboard-cache/internal/entrystore"
)

func newQueryStore() *entrystore.Store {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC))
	return entrystore.New(entrystore.Config{Clock: clock})
}

func TestListParams_Validate(t *testing.T) {
	tests := []struct {
		name    string
		params  ListParams
		wantErr bool
	}{
		{name: "zero value", params: ListParams{}},
		{name: "full", params: ListParams{Search: "acme", Tier: "premium", Limit: 50}},
		{name: "limit too large", params: ListParams{Limit: 101}, wantErr: true},
		{name: "unknown tier", params: ListParams{Tier: "platinum"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.withDefaults().Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewListQuery_NormalizesDefaults(t *testing.T) {
	store := newQueryStore()

	// Omitting the limit and spelling out the default must address the same
	// cache entry.
	implicit, err := NewListQuery(store, nil, ListParams{Search: "acme"})
	require.NoError(t, err)
	defer implicit.Close()

	explicit, err := NewListQuery(store, nil, ListParams{Search: "acme", Limit: 20})
	require.NoError(t, err)
	defer explicit.Close()

	assert.Equal(t, explicit.Key().String(), implicit.Key().String())
}

func TestNewListQuery_RejectsInvalidParams(t *testing.T) {
	store := newQueryStore()

	_, err := NewListQuery(store, nil, ListParams{Limit: 500})
	assert.Error(t, err)
}

func TestNewDetailQuery_KeyShape(t *testing.T) {
	store := newQueryStore()

	q := NewDetailQuery(store, nil, "customer-42")
	defer q.Close()
	assert.Equal(t, "customers::detail::customer-42", q.Key().String())
}
