package odoo

import "context"

// Remote services addressed by the two-endpoint call convention.
const (
	ServiceCommon = "common"
	ServiceObject = "object"
)

// RemoteCaller sends one method invocation to a remote service and returns
// the decoded result. Implementations are pure relays: they never retry.
//
// Returned errors are *ExecutionError; remote-declared faults are reachable
// through errors.As as *Fault.
type RemoteCaller interface {
	Call(ctx context.Context, service, method string, args ...interface{}) (interface{}, error)
}

func callOp(service, method string) string {
	return service + "." + method
}
