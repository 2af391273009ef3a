// Package middleware groups the HTTP middleware of the status API.
//
// # Components
//
//   - auth: API key validation for every route except the Swagger UI.
//   - rayid: a request id (ray id) stored on the context and echoed in the
//     X-Ray-ID response header, picked up by logger.WithRayID.
//
// RayID is registered first so that every log line of a request carries it.
package middleware
