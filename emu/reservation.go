package emu

// Reservation is the load-reservation set by LR and consumed by SC.
//
// The valid flag keeps "no reservation" distinct from a reservation on
// address zero.
type Reservation struct {
	addr  uint64
	valid bool
}

// Set records a reservation on addr, replacing any previous one.
func (r *Reservation) Set(addr uint64) {
	r.addr = addr
	r.valid = true
}

// Clear drops the reservation.
func (r *Reservation) Clear() {
	*r = Reservation{}
}

// Matches reports whether a reservation is held on exactly addr.
func (r *Reservation) Matches(addr uint64) bool {
	return r.valid && r.addr == addr
}

// Addr returns the reserved address and whether a reservation is held.
func (r *Reservation) Addr() (uint64, bool) {
	return r.addr, r.valid
}
