package contextx

// Key is a private type to avoid collisions in request context keys.
type Key string

// UserIDKey is the context key used to store the authenticated user's ID (string).
const UserIDKey Key = "userID"

// UserEmailKey is the context key used to store the authenticated user's email (string).
const UserEmailKey Key = "userEmail"

// AccessTokenKey is the context key used to store the raw bearer token (string).
const AccessTokenKey Key = "accessToken"
