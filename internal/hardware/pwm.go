package hardware

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/sys/unix"
)

// PwmChannel drives one sysfs PWM output. The duty_cycle attribute stays open
// so a tick costs a single pwrite.
type PwmChannel struct {
	dir      string
	periodNs int
	dutyFd   int
}

func OpenPwmChannel(root string, chip, channel, periodNs int) (*PwmChannel, error) {
	chipDir := filepath.Join(root, fmt.Sprintf("pwmchip%d", chip))
	dir := filepath.Join(chipDir, fmt.Sprintf("pwm%d", channel))

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := writeSysfs(filepath.Join(chipDir, "export"), channel); err != nil {
			return nil, fmt.Errorf("failed to export PWM %d on chip %d: %w", channel, chip, err)
		}
	}

	if err := writeSysfs(filepath.Join(dir, "duty_cycle"), 0); err != nil {
		return nil, err
	}
	if err := writeSysfs(filepath.Join(dir, "period"), periodNs); err != nil {
		return nil, err
	}
	if err := writeSysfs(filepath.Join(dir, "enable"), 1); err != nil {
		return nil, err
	}

	fd, err := unix.Open(filepath.Join(dir, "duty_cycle"), unix.O_WRONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open duty_cycle for %s: %w", dir, err)
	}

	return &PwmChannel{
		dir:      dir,
		periodNs: periodNs,
		dutyFd:   fd,
	}, nil
}

// SetDuty takes a duty in 0..MaxDutyValue.
func (p *PwmChannel) SetDuty(duty int) error {
	buf := strconv.AppendInt(nil, int64(ScaleDuty(duty, p.periodNs)), 10)
	if _, err := unix.Pwrite(p.dutyFd, buf, 0); err != nil {
		return fmt.Errorf("failed to write duty %d to %s: %w", duty, p.dir, err)
	}
	return nil
}

func (p *PwmChannel) Close() error {
	if err := p.SetDuty(0); err != nil {
		unix.Close(p.dutyFd)
		return err
	}
	if err := writeSysfs(filepath.Join(p.dir, "enable"), 0); err != nil {
		unix.Close(p.dutyFd)
		return err
	}
	return unix.Close(p.dutyFd)
}

func writeSysfs(path string, value int) error {
	fd, err := unix.Open(path, unix.O_WRONLY|unix.O_TRUNC|unix.O_CLOEXEC, 0)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer unix.Close(fd)

	if _, err := unix.Write(fd, []byte(strconv.Itoa(value))); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
