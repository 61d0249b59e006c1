package cursor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type row struct {
	id uint64
}

func sliceFetch(rows []row) FetchFunc[row] {
	return func(_ context.Context, afterKey uint64, limit int) ([]row, error) {
		var page []row
		for _, r := range rows {
			if r.id > afterKey {
				page = append(page, r)
				if len(page) == limit {
					break
				}
			}
		}
		return page, nil
	}
}

func rowKey(r row) uint64 { return r.id }

func makeRows(n int) []row {
	rows := make([]row, 0, n)
	for i := 1; i <= n; i++ {
		rows = append(rows, row{id: uint64(i)})
	}
	return rows
}

func TestProcess_DrainsAllPages(t *testing.T) {
	rows := makeRows(250)

	var seen []uint64
	var pages int
	err := Process(context.Background(), 100, sliceFetch(rows), rowKey, func(_ context.Context, page []row) error {
		pages++
		for _, r := range page {
			seen = append(seen, r.id)
		}
		return nil
	})
	require.NoError(t, err)
	require.Len(t, seen, 250)
	require.Equal(t, 3, pages)
	for i, id := range seen {
		require.Equal(t, uint64(i+1), id)
	}
}

func TestProcess_ExactPageBoundary(t *testing.T) {
	rows := makeRows(200)

	var pages int
	err := Process(context.Background(), 100, sliceFetch(rows), rowKey, func(_ context.Context, page []row) error {
		pages++
		require.Len(t, page, 100)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 2, pages)
}

func TestProcess_EmptySet(t *testing.T) {
	var pages int
	err := Process(context.Background(), 50, sliceFetch(nil), rowKey, func(_ context.Context, _ []row) error {
		pages++
		return nil
	})
	require.NoError(t, err)
	require.Zero(t, pages)
}

func TestProcess_HandlerErrorAborts(t *testing.T) {
	boom := errors.New("boom")
	rows := makeRows(300)

	var pages int
	err := Process(context.Background(), 100, sliceFetch(rows), rowKey, func(_ context.Context, _ []row) error {
		pages++
		if pages == 2 {
			return boom
		}
		return nil
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 2, pages)
}

func TestProcess_FetchErrorAborts(t *testing.T) {
	boom := errors.New("db down")
	fetch := func(_ context.Context, _ uint64, _ int) ([]row, error) {
		return nil, boom
	}
	err := Process(context.Background(), 100, fetch, rowKey, func(_ context.Context, _ []row) error {
		t.Fatal("handler must not run")
		return nil
	})
	require.ErrorIs(t, err, boom)
}

func TestProcess_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Process(ctx, 100, sliceFetch(makeRows(10)), rowKey, func(_ context.Context, _ []row) error {
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestProcess_DefaultPageSize(t *testing.T) {
	rows := makeRows(DefaultPageSize + 1)

	var pages int
	err := Process(context.Background(), 0, sliceFetch(rows), rowKey, func(_ context.Context, page []row) error {
		pages++
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 2, pages)
}
