// Package http implements the HTTP handlers for the merge service. Handlers
// stay thin: parse the request, call the service layer, transform service
// errors into the API error envelope, render the response.
package http
