// Package hosted contains clients for the two external collaborators PipeDeck
// depends on: the hosted authentication service (session issuing, credential
// verification, change notifications) and the hosted data service (table-scoped
// REST CRUD over the product collections).
//
// Both surfaces are defined as interfaces so the auth state machine and the
// repositories can be tested against fakes without network access.
package hosted
