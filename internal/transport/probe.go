package transport

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tarm/serial"
)

// ListSerialPorts lists the candidate serial devices of this platform.
func ListSerialPorts() []string {
	var ports []string
	switch runtime.GOOS {
	case "windows":
		for i := 1; i <= 256; i++ {
			ports = append(ports, fmt.Sprintf("COM%d", i))
		}
	case "linux":
		// On Linux, serial ports are usually named /dev/ttyS*, /dev/ttyUSB* or /dev/ttyACM*
		files, err := os.ReadDir("/dev")
		if err != nil {
			log.Errorln("error reading directory:", err)
		}
		for _, file := range files {
			name := file.Name()
			if strings.HasPrefix(name, "ttyUSB") || strings.HasPrefix(name, "ttyACM") {
				ports = append(ports, "/dev/"+name)
			}
		}
	case "darwin":
		files, err := os.ReadDir("/dev")
		if err != nil {
			log.Errorln("error reading directory:", err)
		}
		for _, file := range files {
			if file.IsDir() {
				continue
			}
			if name := file.Name(); strings.HasPrefix(name, "tty.") {
				ports = append(ports, "/dev/"+name)
			}
		}
	default:
		log.Warnf("unsupported platform: %s", runtime.GOOS)
	}
	return ports
}

// ProbeSerial returns the ports on which a valid hub packet arrives within timeout.
func ProbeSerial(ports []string, baud int, timeout time.Duration) []string {
	var valid []string
	for _, name := range ports {
		if testPort(name, baud, timeout) {
			valid = append(valid, name)
		}
	}
	return valid
}

func testPort(name string, baud int, timeout time.Duration) bool {
	port, err := serial.OpenPort(&serial.Config{Name: name, Baud: baud, ReadTimeout: timeout})
	if err != nil {
		return false
	}
	defer func() { _ = port.Close() }()
	log.Debugln("probing", name)

	var d frameDecoder
	buffer := make([]byte, BufferSize)
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		n, err := port.Read(buffer)
		if err != nil || n == 0 {
			return false
		}
		for _, b := range buffer[:n] {
			if _, rc := d.input(b); rc == 1 {
				return true
			}
		}
	}
	return false
}
