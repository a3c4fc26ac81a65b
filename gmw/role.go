//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package gmw

import (
	"fmt"

	"github.com/markkurossi/text/superscript"
)

// Role identifies a party of the two-party protocol. The role value
// is the party ID used in circuit input and output arguments.
type Role int

// Protocol roles.
const (
	Server Role = iota
	Client
)

var roles = map[Role]string{
	Server: "server",
	Client: "client",
}

func (r Role) String() string {
	name, ok := roles[r]
	if ok {
		return name
	}
	return fmt.Sprintf("{Role %d}", int(r))
}

// IDString returns the role's party ID as superscript string.
func (r Role) IDString() string {
	return superscript.Itoa(int(r))
}

// Valid tests if the role is a valid protocol role.
func (r Role) Valid() bool {
	return r == Server || r == Client
}

// Peer returns the role of the peer party.
func (r Role) Peer() Role {
	if r == Server {
		return Client
	}
	return Server
}

// ParseRole parses the role name.
func ParseRole(name string) (Role, error) {
	for r, n := range roles {
		if n == name {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown role '%s'", name)
}
