package services

import (
	"context"
	"fmt"

	"github.com/desertthunder/prune/internal/shared"
)

// Page is a Spotify paging object.
type Page[T any] struct {
	Items []T     `json:"items"`
	Next  *string `json:"next"`
	Total int     `json:"total"`
}

// JSONGetter performs an authorized GET and decodes the response.
type JSONGetter interface {
	GetJSON(ctx context.Context, userID, endpoint string, out any) error
}

// FetchAll requests endpoint and every page after it, following `next` until it is null or empty.
//
// Items are returned in page order. Any failing page aborts the whole fetch and nothing collected
// so far is returned. A cursor that points back to an already fetched page is reported as
// [shared.ErrCursorLoop].
func FetchAll[T any](ctx context.Context, c JSONGetter, userID, endpoint string) ([]T, error) {
	items := []T{}
	seen := map[string]bool{}

	for next := endpoint; next != ""; {
		if seen[next] {
			return nil, fmt.Errorf("%w: %s", shared.ErrCursorLoop, next)
		}
		seen[next] = true

		var page Page[T]
		if err := c.GetJSON(ctx, userID, next, &page); err != nil {
			return nil, err
		}
		items = append(items, page.Items...)

		next = ""
		if page.Next != nil {
			next = *page.Next
		}
	}

	return items, nil
}
