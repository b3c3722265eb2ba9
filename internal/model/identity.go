package model

// Identity is the signed-in buyer as asserted by the hosted identity
// provider.  The service never stores users; it only copies ID onto the
// rows the buyer owns.
//
// Fields:
//  ID          – stable subject identifier (JWT "sub").
//  DisplayName – human readable name printed on tickets.
//  Role        – optional role claim; "ADMIN" unlocks the admin API.
type Identity struct {
	ID          string
	DisplayName string
	Role        string
}

// RoleAdmin is the role claim value required by the admin routes.
const RoleAdmin = "ADMIN"
