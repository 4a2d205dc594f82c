// Package bookapi is the HTTP gateway to the library service.
//
// # Overview
//
// Every request shelf makes goes through a single *Client configured with
// the service's base address and a credential.Store. The client owns two
// steps that run for every call with no per-call opt-out:
//
//   - request shaping: Accept, User-Agent and X-Request-ID headers, plus
//     Authorization: Bearer <token> when the store holds a token. The header
//     is never sent empty.
//   - response inspection: a 401 clears the store, fires the configured
//     UnauthorizedHandler and then returns the failure to the caller.
//
// Login and registration skip the bearer header but are still inspected.
//
// # Architecture
//
//   - client.go: Client, request shaping, response inspection, APIError
//   - endpoints.go: one method per service endpoint
//   - form.go: JSON and multipart bodies, attachments
//   - files.go: file reference resolution with default artwork
//   - types.go: records mirroring the service schema
//
// # Error Handling
//
// Non-2xx responses become *APIError carrying the status, the request path
// and the server's "message" field when the body has one. 401 responses also
// match ErrUnauthorized:
//
//	if errors.Is(err, bookapi.ErrUnauthorized) {
//		// the session is already gone
//	}
//
// Transport failures are wrapped as "execute request: ..." and undecodable
// bodies as "decode response: ...". Nothing is retried here.
//
// # Multipart Payloads
//
// Form drops nil text fields and nil attachments so an update that leaves
// the cover image alone never overwrites it with an empty part:
//
//	desc := "new blurb"
//	book, err := client.UpdateBook(ctx, id, bookapi.BookPayload{Description: &desc})
//
// # Usage
//
//	store, _ := credential.NewFileStore("")
//	client, err := bookapi.NewClient("http://localhost:8080/api", store)
//	if err != nil {
//		return err
//	}
//	page, err := client.ListBooks(ctx, bookapi.ListParams{Size: 12, SortBy: "createdAt", SortDir: "desc"})
package bookapi
