package domain

import "time"

// Session is a bearer-token grant for one user. The row's existence is the only validity
// signal: deleting it revokes every token that names it.
type Session struct {
	ID        int64
	UserID    int64
	CreatedAt time.Time
}
