package hardware

const (
	// Consumer label on every requested GPIO line.
	GpioConsumer = "line-follower"

	PwmSysfsRoot = "/sys/class/pwm"
	IioSysfsRoot = "/sys/bus/iio/devices"

	// MaxDutyValue is full scale of the duty values handed to SetDuty.
	MaxDutyValue = 1023
)

// LineAddr addresses a GPIO line on a chip.
type LineAddr struct {
	Chip int
	Line int
}
