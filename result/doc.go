// Package result provides the status-tagged value returned by every safe
// filesystem operation.
//
// A Result carries an optional payload, a closed status code, and an
// optional diagnostic message. Emptiness (no payload) and success
// (status OK or CACHED) are independent axes: a NOT_FOUND result is empty
// and unsuccessful, while an empty OK result is a legal "no data" success.
//
// Results are immutable. Derived results (same payload and message, new
// status) come from WithStatus; there is no mutation.
//
// Example Usage:
//
//	r := result.Ok("hello")
//	if r.Succeeded() {
//	    text, _ := r.Payload()
//	    fmt.Println(text)
//	}
//
//	missing := result.NotFound[string]("no such file")
//	missing.IsEmpty() // true
package result
