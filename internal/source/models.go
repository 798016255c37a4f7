package source

// Profile is the subset of a GitHub user the crawler relies on
type Profile struct {
	Login     string
	URL       string
	Followers int
}

// Contact is one entry of a followers or following list
type Contact struct {
	Login string
	URL   string
}

// Wire shapes. Pointers distinguish absent fields from zero values.
type userPayload struct {
	Login     *string `json:"login"`
	HTMLURL   *string `json:"html_url"`
	Followers *int    `json:"followers"`
}

type contactPayload struct {
	Login   *string `json:"login"`
	HTMLURL *string `json:"html_url"`
}
