package gpu

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Status is the outcome a device reports for an operation. Success, NotReady,
// Timeout and Suboptimal are non-error outcomes; everything else is a
// failure.
type Status int

const (
	StatusSuccess Status = iota
	StatusNotReady
	StatusTimeout
	StatusSuboptimal
	StatusOutOfDate
	StatusDeviceLost
	StatusOutOfHostMemory
	StatusOutOfDeviceMemory
	StatusSurfaceLost
	StatusInitializationFailed
	StatusUnknown
)

var statusNames = map[Status]string{
	StatusSuccess:              "VK_SUCCESS",
	StatusNotReady:             "VK_NOT_READY",
	StatusTimeout:              "VK_TIMEOUT",
	StatusSuboptimal:           "VK_SUBOPTIMAL_KHR",
	StatusOutOfDate:            "VK_ERROR_OUT_OF_DATE_KHR",
	StatusDeviceLost:           "VK_ERROR_DEVICE_LOST",
	StatusOutOfHostMemory:      "VK_ERROR_OUT_OF_HOST_MEMORY",
	StatusOutOfDeviceMemory:    "VK_ERROR_OUT_OF_DEVICE_MEMORY",
	StatusSurfaceLost:          "VK_ERROR_SURFACE_LOST_KHR",
	StatusInitializationFailed: "VK_ERROR_INITIALIZATION_FAILED",
	StatusUnknown:              "VK_ERROR_UNKNOWN",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Failed reports whether the status is an error status.
func (s Status) Failed() bool {
	switch s {
	case StatusSuccess, StatusNotReady, StatusTimeout, StatusSuboptimal:
		return false
	}
	return true
}

// Error is returned by a device when an operation ends in a failure status.
type Error struct {
	Op     string
	Status Status
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Status)
}

// NewError builds an *Error for op. It panics if status is not a failure,
// which would indicate a bug in the binding.
func NewError(op string, status Status) error {
	if !status.Failed() {
		panic(fmt.Sprintf("gpu.NewError(%q) with non-failure status %s", op, status))
	}
	return &Error{Op: op, Status: status}
}

// StatusOf extracts the device status carried by err. It returns
// StatusSuccess for a nil error and StatusUnknown when err does not wrap an
// *Error.
func StatusOf(err error) Status {
	if err == nil {
		return StatusSuccess
	}
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr.Status
	}
	return StatusUnknown
}
