// Package auth holds the account model shared by the admin tools: roles and
// their checks, session token inspection, and a client for the platform's
// auth API.
//
// Token signatures are verified by the platform. This package only reads the
// exp claim to decide whether a stored session is still usable.
package auth
