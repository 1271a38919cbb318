package data

import (
	"net/url"
	"strconv"
	"strings"

	"exams.zzh.net/internal/validator"
)

// Filter is used for filtering, sorting and pagination of list endpoints.
type Filter struct {
    Page         int
    PageSize     int
    Sort         string
    SortSafeList []string
}

// ReadFilter reads page, page_size and sort from qs, falling back to the given defaults.
// Malformed integers are recorded on v.
func ReadFilter(qs url.Values, v *validator.Validator, defaultSort string, safeList ...string) Filter {
    return Filter{
        Page:         readInt(qs, "page", 1, v),
        PageSize:     readInt(qs, "page_size", 20, v),
        Sort:         readString(qs, "sort", defaultSort),
        SortSafeList: safeList,
    }
}

func readString(qs url.Values, key, defaultValue string) string {
    s := qs.Get(key)
    if s == "" {
        return defaultValue
    }

    return s
}

func readInt(qs url.Values, key string, defaultValue int, v *validator.Validator) int {
    s := qs.Get(key)
    if s == "" {
        return defaultValue
    }

    i, err := strconv.Atoi(s)
    if err != nil {
        v.AddError(key, "must be an integer value")
        return defaultValue
    }

    return i
}

// ValidateFilter validates the fields of f using validator v.
func ValidateFilter(v *validator.Validator, f Filter) {
    v.Check(f.Page > 0, "page", "must be greater than 0")
    v.Check(f.Page <= 10_000_000, "page", "must be less than or equal to 10000000")
    v.Check(f.PageSize > 0, "page_size", "must be greater than 0")
    v.Check(f.PageSize <= 100, "page_size", "must be less than or equal to 100")
    v.Check(validator.PermittedValue(f.Sort, f.SortSafeList...), "sort", "invalid sort value")
}

// sortColumn returns the column named by Sort without its leading hyphen. Sort must have
// passed ValidateFilter, anything else is a programming error.
func (f Filter) sortColumn() string {
    for _, safeValue := range f.SortSafeList {
        if f.Sort == safeValue {
            return strings.TrimPrefix(f.Sort, "-")
        }
    }

    panic("unsafe sort parameter: " + f.Sort)
}

func (f Filter) sortDirection() string {
    if strings.HasPrefix(f.Sort, "-") {
        return "DESC"
    }

    return "ASC"
}

func (f Filter) limit() int {
    return f.PageSize
}

func (f Filter) offset() int {
    return (f.Page - 1) * f.PageSize
}

// Metadata holds the pagination metadata.
type Metadata struct {
    CurrentPage  int `json:"current_page,omitempty"`
    PageSize     int `json:"page_size,omitempty"`
    FirstPage    int `json:"first_page,omitempty"`
    LastPage     int `json:"last_page,omitempty"`
    TotalRecords int `json:"total_records,omitempty"`
}

func calculateMetadata(totalRecords, page, pageSize int) Metadata {
    if totalRecords == 0 {
        return Metadata{}
    }

    return Metadata{
        CurrentPage:  page,
        PageSize:     pageSize,
        FirstPage:    1,
        LastPage:     (totalRecords + pageSize - 1) / pageSize,
        TotalRecords: totalRecords,
    }
}
