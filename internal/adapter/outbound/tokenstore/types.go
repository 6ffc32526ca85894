package tokenstore

import "time"

// jar is the on-disk document. It mirrors a browser cookie jar restricted to the
// three session cookies.
type jar struct {
	Cookies   []cookie  `json:"cookies"`
	UpdatedAt time.Time `json:"updated_at"`
}

// cookie is a single persisted slot. Expires is the cookie lifetime, which is
// shared by all three slots and independent of the token's own expiry.
type cookie struct {
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Expires time.Time `json:"expires"`
}
