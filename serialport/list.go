package serialport

import (
	"fmt"
	"sort"

	"go.bug.st/serial/enumerator"
)

// PortInfo describes a serial port found on the host.
type PortInfo struct {
	Name string

	// IsUSB is set for USB serial adapters; the fields below are only
	// filled in for them
	IsUSB        bool
	VID          string
	PID          string
	SerialNumber string
	Product      string
}

func (pi PortInfo) String() string {
	if !pi.IsUSB {
		return pi.Name
	}
	s := fmt.Sprintf("%s  USB %s:%s", pi.Name, pi.VID, pi.PID)
	if pi.SerialNumber != "" {
		s += " serial=" + pi.SerialNumber
	}
	if pi.Product != "" {
		s += " " + pi.Product
	}
	return s
}

// List returns the serial ports present on the host, sorted by name.
func List() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}

	ports := make([]PortInfo, 0, len(details))
	for _, d := range details {
		ports = append(ports, PortInfo{
			Name:         d.Name,
			IsUSB:        d.IsUSB,
			VID:          d.VID,
			PID:          d.PID,
			SerialNumber: d.SerialNumber,
			Product:      d.Product,
		})
	}
	sort.Slice(ports, func(i, j int) bool { return ports[i].Name < ports[j].Name })
	return ports, nil
}
