package constants

type ContextKey string

const (
	RequestIDKey   ContextKey = "request_id"
	AuthPayloadKey ContextKey = "auth_payload"
)

// 認證由上游 gateway 完成，這裡只讀取轉發的 header
const (
	HeaderRequestID = "X-Request-ID"
	HeaderUserID    = "X-User-ID"
	HeaderUserRole  = "X-User-Role"
	HeaderUserName  = "X-User-Name"
	HeaderUserEmail = "X-User-Email"
	HeaderUserPhone = "X-User-Phone"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)
