package flickr

import (
	"context"
	"math/rand/v2"
)

type SearchService struct {
	client  *Client
	perPage int
	maxPage int
	sort    string
	size    string
	// page picks the result page to request, in [1, maxPage].
	page func(maxPage int) int
}

type Options struct {
	PerPage int
	MaxPage int
	Sort    string
	Size    string
}

func NewSearchService(client *Client, opts Options) *SearchService {
	if opts.PerPage <= 0 {
		opts.PerPage = 5
	}
	if opts.MaxPage <= 0 {
		opts.MaxPage = 10
	}
	if opts.Sort == "" {
		opts.Sort = DefaultSort
	}
	if opts.Size == "" {
		opts.Size = DefaultSize
	}
	return &SearchService{
		client:  client,
		perPage: opts.PerPage,
		maxPage: opts.MaxPage,
		sort:    opts.Sort,
		size:    opts.Size,
		page:    randomPage,
	}
}

func randomPage(maxPage int) int {
	return rand.IntN(maxPage) + 1
}

// PhotoURLs returns the image URLs of one randomly chosen result page for
// the coordinate. An empty page yields an empty slice.
func (s *SearchService) PhotoURLs(ctx context.Context, lat, lon float64) ([]string, error) {
	resp, err := s.client.SearchPhotos(ctx, SearchParams{
		Lat:     lat,
		Lon:     lon,
		PerPage: s.perPage,
		Page:    s.page(s.maxPage),
		Sort:    s.sort,
	})
	if err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(resp.Photos.Photo))
	for _, p := range resp.Photos.Photo {
		urls = append(urls, ImageURL(p, s.size))
	}
	return urls, nil
}
