// Package remote validates form values against an HTTP validation endpoint
// and serves such an endpoint from a schema catalog.
//
// The wire format is shared by Client and Server:
//
//	POST /api/forms/{id}/validate/
//	{"name": "", "address": {"city": "Rome"}}
//
//	422 {"valid": false, "errors": {"name": ["Name is required"], "form": ["..."]}}
//
// Start runs a request on its own goroutine and returns a Pending whose
// result is applied to an EditContext by the goroutine that owns it.
package remote
