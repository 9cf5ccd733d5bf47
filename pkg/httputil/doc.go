// Package httputil holds the JSON plumbing shared by familymap's HTTP
// handlers: body decoding with a size limit, JSON responses and the mapping
// from coded errors to status codes.
//
// Errors are written as
//
//	{"code": "CYCLE_DETECTED", "message": "..."}
//
// with the status from [StatusFor].
package httputil
