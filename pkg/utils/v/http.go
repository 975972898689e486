package v

import "net/textproto"

var (
	HeaderUserID = textproto.CanonicalMIMEHeaderKey("X-User-Id")
	// HeaderApprover is set by the gateway to "consumer", "provider" or "consumer,provider".
	HeaderApprover = textproto.CanonicalMIMEHeaderKey("X-Approver")
	HeaderTraceID  = textproto.CanonicalMIMEHeaderKey("X-Trace-Id")
	// HeaderSecretCode authenticates provider callbacks against the offering secret.
	HeaderSecretCode = textproto.CanonicalMIMEHeaderKey("X-Secret-Code")
)

const (
	ApproverConsumer = "consumer"
	ApproverProvider = "provider"
)

const (
	DefaultPageNum  = 1
	DefaultPageSize = 20
)
