package flickr

import "fmt"

// SearchResponse is the top-level struct for a flickr.photos.search reply.
// Stat is "ok" on success; on failure Code and Message describe the problem.
type SearchResponse struct {
	Photos  PhotoPage `json:"photos"`
	Stat    string    `json:"stat"`
	Code    int       `json:"code"`
	Message string    `json:"message"`
}

// PhotoPage holds one page of search results and the pagination info.
type PhotoPage struct {
	Page    int     `json:"page"`
	Pages   int     `json:"pages"`
	PerPage int     `json:"perpage"`
	Total   int     `json:"total"`
	Photo   []Photo `json:"photo"`
}

type Photo struct {
	ID       string `json:"id"`
	Owner    string `json:"owner"`
	Secret   string `json:"secret"`
	Server   string `json:"server"`
	Farm     int    `json:"farm"`
	Title    string `json:"title"`
	IsPublic int    `json:"ispublic"`
	IsFriend int    `json:"isfriend"`
	IsFamily int    `json:"isfamily"`
}

// APIError is returned when Flickr answers with stat=fail.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("flickr api error %d: %s", e.Code, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == ErrSearch
}
