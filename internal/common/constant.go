// Package common contains shared constants and sentinel errors used across
// filevault components.
package common

// SessionTokenHeaderName is the HTTP header carrying the session token.
const SessionTokenHeaderName = "X-Token"

// RootParentID is the parent reference of records placed at the top level.
const RootParentID = "0"
