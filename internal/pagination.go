package internal

import "strconv"

const (
	// DefaultPage is the page used when the client does not request one
	DefaultPage = 1
	// DefaultLimit is the page size used when the client does not request one
	DefaultLimit = 10
	// MaxLimit is the largest page size a client may request
	MaxLimit = 100
)

// PageParams holds sanitized pagination parameters for a listing request
type PageParams struct {
	Page  uint `json:"page"`
	Limit uint `json:"limit"`
}

// ParsePageParams builds pagination parameters from the raw query values.
// Values that are missing, non-numeric or out of range are silently replaced
// instead of rejecting the request.
func ParsePageParams(pageStr, limitStr string) PageParams {
	p := PageParams{Page: DefaultPage, Limit: DefaultLimit}
	if v, err := strconv.ParseUint(pageStr, 10, 32); err == nil && v >= 1 {
		p.Page = uint(v)
	}
	if v, err := strconv.ParseUint(limitStr, 10, 32); err == nil && v >= 1 {
		p.Limit = uint(v)
		if p.Limit > MaxLimit {
			p.Limit = MaxLimit
		}
	}
	return p
}

// Offset returns the row offset corresponding to the page and limit
func (p PageParams) Offset() uint {
	return (p.Page - 1) * p.Limit
}

// PageMeta describes the position of one page inside the full result set
type PageMeta struct {
	Page       uint `json:"page"`
	Limit      uint `json:"limit"`
	Total      uint `json:"total"`
	TotalPages uint `json:"totalPages"`
	HasMore    bool `json:"hasMore"`
}

// MakePageMeta calculates the page metadata for the given parameters and total row count
func MakePageMeta(p PageParams, total uint) PageMeta {
	totalPages := total / p.Limit
	if total%p.Limit != 0 {
		totalPages++
	}
	return PageMeta{
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      total,
		TotalPages: totalPages,
		HasMore:    p.Page < totalPages,
	}
}

// PagedResult is the envelope returned by all listing endpoints
type PagedResult struct {
	Data interface{} `json:"data"`
	Meta PageMeta    `json:"meta"`
}
