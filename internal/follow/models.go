package follow

// UserRef is the slim user shape rendered in follower/following lists.
type UserRef struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Page is one page of a follower/following list.
type Page struct {
	Items    []UserRef `json:"items"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
}
