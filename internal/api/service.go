package api

import (
	"context"
	"fmt"
)

// Service classes exposed by the management API.
const (
	ClassResourceMonitor = "ResourceMonitor"
	ClassStore           = "Store"
	ClassSystemInfo      = "SystemInfo"
	ClassUser            = "User"
	ClassNetwork         = "Network"
	ClassFile            = "File"
	ClassSAC             = "SAC"
)

var classes = map[string]bool{
	ClassResourceMonitor: true,
	ClassStore:           true,
	ClassSystemInfo:      true,
	ClassUser:            true,
	ClassNetwork:         true,
	ClassFile:            true,
	ClassSAC:             true,
}

// Service is a handle on one remote service class.
type Service struct {
	client    *Client
	className string
}

// ClassName returns the remote class the service calls into.
func (s *Service) ClassName() string { return s.className }

// Call invokes method with args on the service class.
func (s *Service) Call(ctx context.Context, method string, args ...any) (any, error) {
	return s.client.Call(ctx, s.className, method, args...)
}

// NewService returns the service for className on client. It is the
// GetSDKInstance factory handed to plugins, so client is untyped.
func NewService(client any, className string) (any, error) {
	c, ok := client.(*Client)
	if !ok || c == nil {
		return nil, fmt.Errorf("expected *api.Client, got %T", client)
	}
	if !classes[className] {
		return nil, fmt.Errorf("unknown SDK class: %s", className)
	}
	return &Service{client: c, className: className}, nil
}
