package idgen

import (
	"hash/fnv"
	"os"
	"strconv"

	"github.com/fundwit/go-commons/types"
	"github.com/sony/sonyflake"
)

// NewWorker builds a sonyflake worker. The machine id comes from SONYFLAKE_MACHINE_ID when set,
// otherwise it is derived from the host name so that hosts without a private ip can still start.
func NewWorker() *sonyflake.Sonyflake {
	return sonyflake.NewSonyflake(sonyflake.Settings{MachineID: machineID})
}

func NextID(worker *sonyflake.Sonyflake) types.ID {
	id, err := worker.NextID()
	if err != nil {
		panic(err)
	}
	return types.ID(id)
}

func machineID() (uint16, error) {
	if v := os.Getenv("SONYFLAKE_MACHINE_ID"); v != "" {
		id, err := strconv.ParseUint(v, 10, 16)
		if err != nil {
			return 0, err
		}
		return uint16(id), nil
	}
	hostname, err := os.Hostname()
	if err != nil {
		return 0, err
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(hostname))
	return uint16(h.Sum32()), nil
}
