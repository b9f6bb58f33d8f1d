package core

// GPIOPin identifies a GPIO pin by its platform-assigned number.
type GPIOPin uint32

// GPIODriver is the GPIO contract hw-package backends drive through:
// configure a pin's direction once, then toggle or sample it per step.
// Concrete implementations come from platform code (machine.Pin on
// tinygo/rp2040) or test doubles standing in for real hardware.
type GPIODriver interface {
	// ConfigureOutput configures pin as a digital output.
	ConfigureOutput(pin GPIOPin) error

	// ConfigureInputPullUp configures pin as a digital input with an
	// internal pull-up resistor.
	ConfigureInputPullUp(pin GPIOPin) error

	// ConfigureInputPullDown configures pin as a digital input with an
	// internal pull-down resistor.
	ConfigureInputPullDown(pin GPIOPin) error

	// SetPin drives pin high (true) or low (false). Pin must already be
	// configured as an output.
	SetPin(pin GPIOPin, value bool) error

	// GetPin reads pin's current level.
	GetPin(pin GPIOPin) (bool, error)

	// ReadPin is GetPin without the error return, for call sites that
	// treat an unreadable pin the same as a low one.
	ReadPin(pin GPIOPin) bool
}
