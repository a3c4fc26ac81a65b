//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package party

import (
	"crypto/elliptic"
	"fmt"
	"io"
	"net"
	"runtime"
	"strconv"
	"time"

	"github.com/markkurossi/maxpool/env"
	"github.com/markkurossi/maxpool/gmw"
	"github.com/markkurossi/maxpool/ot"
)

// Role identifies the party role.
type Role = gmw.Role

// Party roles.
const (
	Server = gmw.Server
	Client = gmw.Client
)

// ParseRole parses the role name.
func ParseRole(name string) (Role, error) {
	return gmw.ParseRole(name)
}

// Base OT protocols.
const (
	OTProtocolCO  = "co"
	OTProtocolRSA = "rsa"
)

// Configuration defaults.
const (
	DefaultAddress        = "localhost"
	DefaultPort           = 7766
	DefaultSecurityLevel  = 128
	DefaultBitlen         = 64
	DefaultConnectTimeout = 10 * time.Second
)

// Config defines the party configuration.
type Config struct {
	Role    Role
	Address string
	Port    int

	// SecurityLevel defines the symmetric security level in bits: 80,
	// 112, or 128. It selects the base OT parameters.
	SecurityLevel int

	// Bitlen defines the default wire width of the circuit values.
	Bitlen int

	// NumThreads bounds the number of goroutines hashing OT output.
	NumThreads int

	// OTProtocol selects the base OT protocol: co or rsa.
	OTProtocol string

	// OTBufferSize defines the number of multiplication triples
	// created in one OT extension round.
	OTBufferSize int

	// ConnectTimeout bounds the time the client tries to connect to
	// the server.
	ConnectTimeout time.Duration

	Verbose bool
	Env     *env.Config
}

// WithDefaults returns a copy of the configuration where unset
// fields have their default values.
func (cfg Config) WithDefaults() Config {
	if len(cfg.Address) == 0 {
		cfg.Address = DefaultAddress
	}
	if cfg.SecurityLevel == 0 {
		cfg.SecurityLevel = DefaultSecurityLevel
	}
	if cfg.Bitlen == 0 {
		cfg.Bitlen = DefaultBitlen
	}
	if cfg.NumThreads == 0 {
		cfg.NumThreads = runtime.NumCPU()
	}
	if len(cfg.OTProtocol) == 0 {
		cfg.OTProtocol = OTProtocolCO
	}
	if cfg.OTBufferSize == 0 {
		cfg.OTBufferSize = gmw.DefaultBufferSize
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	return cfg
}

// Validate checks the configuration values.
func (cfg Config) Validate() error {
	if !cfg.Role.Valid() {
		return fmt.Errorf("invalid role %v", cfg.Role)
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port %d", cfg.Port)
	}
	if cfg.Role == Client && cfg.Port == 0 {
		return fmt.Errorf("client port not set")
	}
	switch cfg.SecurityLevel {
	case 80, 112, 128:
	default:
		return fmt.Errorf("invalid security level %d", cfg.SecurityLevel)
	}
	if cfg.Bitlen < 1 || cfg.Bitlen > 64 {
		return fmt.Errorf("invalid bitlen %d", cfg.Bitlen)
	}
	if cfg.NumThreads < 0 {
		return fmt.Errorf("invalid number of threads %d", cfg.NumThreads)
	}
	switch cfg.OTProtocol {
	case OTProtocolCO, OTProtocolRSA:
	default:
		return fmt.Errorf("unknown OT protocol '%s'", cfg.OTProtocol)
	}
	if cfg.OTBufferSize < 0 {
		return fmt.Errorf("invalid OT buffer size %d", cfg.OTBufferSize)
	}
	if cfg.ConnectTimeout < 0 {
		return fmt.Errorf("invalid connect timeout %s", cfg.ConnectTimeout)
	}
	return nil
}

// Endpoint returns the network endpoint of the server.
func (cfg Config) Endpoint() string {
	return net.JoinHostPort(cfg.Address, strconv.Itoa(cfg.Port))
}

// RSABits returns the RSA modulus size for the security level.
func (cfg Config) RSABits() int {
	switch {
	case cfg.SecurityLevel <= 80:
		return 1024
	case cfg.SecurityLevel <= 112:
		return 2048
	default:
		return 3072
	}
}

// Curve returns the elliptic curve for the security level.
func (cfg Config) Curve() elliptic.Curve {
	if cfg.SecurityLevel <= 112 {
		return elliptic.P224()
	}
	return elliptic.P256()
}

// BaseOT returns the constructor of the base OT instances for the
// configured protocol and security level.
func (cfg Config) BaseOT(r io.Reader) func() ot.OT {
	if cfg.OTProtocol == OTProtocolRSA {
		bits := cfg.RSABits()
		return func() ot.OT {
			return ot.NewRSA(r, bits)
		}
	}
	curve := cfg.Curve()
	return func() ot.OT {
		return ot.NewCOWithCurve(r, curve)
	}
}
