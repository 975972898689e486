package idx

import (
	"net"

	"github.com/pkg/errors"
	"github.com/sony/sonyflake"
)

var sf = sonyflake.NewSonyflake(sonyflake.Settings{MachineID: machineID})

// NextID returns a time ordered 63 bit id, unique across hosts of one private network.
func NextID() (uint64, error) {
	if sf == nil {
		return 0, errors.New("sonyflake is not initialized")
	}
	id, err := sf.NextID()
	return id, errors.WithStack(err)
}

// machineID uses the lower 16 bits of the first private IPv4 address, or 1 when the host has none.
func machineID() (uint16, error) {
	ip := lower16BitIPV4()
	if ip == nil {
		return 1, nil
	}
	return uint16(ip[2])<<8 + uint16(ip[3]), nil
}

func lower16BitIPV4() net.IP {
	as, err := net.InterfaceAddrs()
	if err != nil {
		return nil
	}
	for _, a := range as {
		inet, ok := a.(*net.IPNet)
		if !ok || inet.IP.IsLoopback() {
			continue
		}
		if ip := inet.IP.To4(); ip != nil {
			return ip
		}
	}
	return nil
}
