package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"strings"
)

// HostDeviceID reads the physical MAC address of this machine and hashes it
// into a clean, standard ID like "BALE-A1B2C3D4". The server registers
// itself under this ID so the shop's own console is approved from day one.
func HostDeviceID() string {
	interfaces, err := net.Interfaces()
	if err != nil {
		return "UNKNOWN-DEVICE"
	}

	var macAddress string
	for _, i := range interfaces {
		// First active physical network interface wins
		if i.Flags&net.FlagUp != 0 && len(i.HardwareAddr) > 0 {
			macAddress = i.HardwareAddr.String()
			break
		}
	}

	if macAddress == "" {
		return "UNKNOWN-DEVICE"
	}

	hash := sha256.Sum256([]byte(macAddress + "BALE-POS-SALT"))
	hashString := hex.EncodeToString(hash[:])

	return "BALE-" + strings.ToUpper(hashString[:8])
}
