// Package proxy forwards selected request paths to backend services.
//
// Rules are tried in order and the first whose pattern matches the request
// path wins. The request is sent to the rule's target with the Host header
// rewritten to the target host, and the path optionally rewritten by
// replacing the first match of a regexp. Unmatched requests fall through to
// the next handler.
package proxy
