package cms

// Entry is a single CMS record: numeric id plus the content-type fields.
type Entry[T any] struct {
	ID         int `json:"id"`
	Attributes T   `json:"attributes"`
}

type Document[T any] struct {
	Data Entry[T] `json:"data"`
}

type List[T any] struct {
	Data []Entry[T] `json:"data"`
	Meta Meta       `json:"meta"`
}

type Meta struct {
	Pagination Pagination `json:"pagination"`
}

type Pagination struct {
	Page      int `json:"page"`
	PageSize  int `json:"pageSize"`
	PageCount int `json:"pageCount"`
	Total     int `json:"total"`
}

// Payload wraps a write body the way the CMS expects it.
type Payload[T any] struct {
	Data T `json:"data"`
}
