// Package supabase builds request clients for the platform project that backs
// the admin console: the REST data API, the auth API and object storage.
//
// Each call to Rest, Auth or Storage returns a fresh *apiclient.Client so
// that consumers can hold independent session tokens.
package supabase
