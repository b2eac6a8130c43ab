package x

import "fmt"

// TweetsResponse is the body of GET /2/users/:id/tweets.
type TweetsResponse struct {
	Data   []Tweet    `json:"data"`
	Meta   Meta       `json:"meta"`
	Errors []APIError `json:"errors"`
}

type Tweet struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
}

type Meta struct {
	ResultCount int    `json:"result_count"`
	NewestID    string `json:"newest_id"`
	OldestID    string `json:"oldest_id"`
	NextToken   string `json:"next_token"`
}

// UserResponse is the body of GET /2/users/:id.
type UserResponse struct {
	Data   *User      `json:"data"`
	Errors []APIError `json:"errors"`
}

type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

// APIError is an entry of a partial-error array or a problem body
// returned with a non-2xx status.
type APIError struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Type   string `json:"type"`
	Status int    `json:"status"`
}

func (e APIError) Error() string {
	if e.Detail != "" && e.Detail != e.Title {
		return fmt.Sprintf("%s: %s", e.Title, e.Detail)
	}
	return e.Title
}
