package vmxnet3

import "errors"

// Construction-time error kinds (spec §7): fatal, surfaced through New's
// error return, the idiomatic-Go replacement for the original's
// constructor failure channel / process-abort asserts.
var (
	// ErrUnsupportedDevice is returned when the revision id or the
	// version-negotiation read-back does not match what this driver
	// supports.
	ErrUnsupportedDevice = errors.New("vmxnet3: unsupported device")

	// ErrNoMsix is returned when the device lacks an MSI-X capability;
	// legacy IRQ delivery is out of scope (spec §1 Non-goals).
	ErrNoMsix = errors.New("vmxnet3: device has no MSI-X capability")

	// ErrActivationFailed is returned when ACTIVATE_DEV returns a
	// nonzero status.
	ErrActivationFailed = errors.New("vmxnet3: device activation failed")

	// ErrProtocolViolation is the value receive panics with for a
	// completion entry bearing a qid this driver cannot map to either RX
	// descriptor ring -- a sign of memory corruption or a device bug
	// (spec §7).
	ErrProtocolViolation = errors.New("vmxnet3: protocol violation")
)

// linkDownNotice is not an error returned to callers: construction
// completes successfully even when the link is down (spec §7
// "LinkDown: transient"); New only logs it.
const linkDownNotice = "vmxnet3: link down at construction, driver idle until link comes up"
