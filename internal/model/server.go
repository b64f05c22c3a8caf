package model

import (
	"context"
	"net"
)

// SecurityLayer abstracts how the server listener is created, so TLS can be
// toggled by configuration.
type SecurityLayer interface {
	Listen(protocol, addr string) (net.Listener, error)
}

// Server is a network server with a managed lifecycle.
type Server interface {
	Start(securityLayer SecurityLayer) error
	Stop(ctx context.Context) error
	Address() string
}
