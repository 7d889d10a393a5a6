// Package auth provides API key middleware for the operational HTTP
// endpoints.
//
// APIKey(mode, header, key) wraps a handler so that requests must carry key
// in the named header. When mode != "apikey" or key == "" every request
// passes through, which suits local development. A missing or wrong key gets
// a JSON 401 and the wrapped handler is not called.
package auth
