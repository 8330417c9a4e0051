// Package enterprise manages enterprise records and their registration
// documents through the platform REST API.
//
// An enterprise moves through a review workflow:
//
//	draft -> pending -> approved | rejected
//
// Submit moves a draft to pending and Review settles a pending record.
// Suspension is an administrative update outside the workflow.
package enterprise
