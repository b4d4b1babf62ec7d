package middleware

const (
	CtxIdentity  = "auth.identity"
	CtxRequestID = "request_id"
)
