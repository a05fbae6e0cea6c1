// Package serialport connects beslink sessions to real serial ports.
//
// Port wraps go.bug.st/serial and adds the baud rate switch a session
// performs once the programmer runs. List enumerates the ports on the host
// and Monitor prints whatever a chip sends, for watching boot logs.
package serialport
