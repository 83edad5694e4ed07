package gate

import "errors"

var (
	// ErrUnauthorized is returned when a caller fails the admin check.
	ErrUnauthorized = errors.New("gate: caller is not the admin")
	// ErrAdminUnset is returned when no admin has been initialized yet.
	ErrAdminUnset = errors.New("gate: admin not initialized")

	errNilState = errors.New("gate: state not configured")
)

// State is the subset of state manager functionality the gate relies on. The
// admin address persists alongside the auction records so it survives logic
// upgrades.
type State interface {
	AdminGet() ([20]byte, bool, error)
	AdminPut([20]byte) error
}

// Capability is proof that a caller passed the admin check. Privileged
// operations accept a Capability instead of re-deriving the caller identity,
// which keeps call sites unchanged if the authorization model grows beyond a
// single admin.
type Capability struct {
	holder [20]byte
	valid  bool
}

// Valid reports whether the capability was minted by a gate.
func (c Capability) Valid() bool { return c.valid }

// Holder returns the address the capability was minted for.
func (c Capability) Holder() [20]byte { return c.holder }

// Gate performs the single-admin authorization check for privileged
// operations.
type Gate struct {
	state State
}

// New constructs a gate bound to the supplied state backend.
func New(state State) *Gate {
	return &Gate{state: state}
}

// SetAdmin records the admin address. It is invoked exactly once per storage
// instance, by proxy initialization.
func (g *Gate) SetAdmin(addr [20]byte) error {
	if g == nil || g.state == nil {
		return errNilState
	}
	return g.state.AdminPut(addr)
}

// Admin returns the configured admin address.
func (g *Gate) Admin() ([20]byte, error) {
	if g == nil || g.state == nil {
		return [20]byte{}, errNilState
	}
	admin, ok, err := g.state.AdminGet()
	if err != nil {
		return [20]byte{}, err
	}
	if !ok {
		return [20]byte{}, ErrAdminUnset
	}
	return admin, nil
}

// Authorize mints a capability for the caller when it matches the admin
// address and returns ErrUnauthorized otherwise.
func (g *Gate) Authorize(caller [20]byte) (Capability, error) {
	admin, err := g.Admin()
	if err != nil {
		return Capability{}, err
	}
	if caller != admin {
		return Capability{}, ErrUnauthorized
	}
	return Capability{holder: caller, valid: true}, nil
}
