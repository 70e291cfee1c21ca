package lite

import "fmt"

// Resp is an AXI response code.
type Resp uint8

// Response codes.
const (
	OKAY   Resp = 0b00
	EXOKAY Resp = 0b01
	SLVERR Resp = 0b10
	DECERR Resp = 0b11
)

func (r Resp) String() string {
	switch r {
	case OKAY:
		return "OKAY"
	case EXOKAY:
		return "EXOKAY"
	case SLVERR:
		return "SLVERR"
	case DECERR:
		return "DECERR"
	}

	return fmt.Sprintf("Resp(%d)", uint8(r))
}

// A WriteTransaction is a single AXI4-Lite write. The delays are the cycles
// the master waits, from the start of the transaction, before raising AWVALID,
// WVALID and BREADY respectively.
type WriteTransaction struct {
	Address uint64
	Data    uint64
	Strobe  uint64
	Prot    uint8

	AddressDelay       int
	DataDelay          int
	ResponseReadyDelay int
}

// A ReadTransaction is a single AXI4-Lite read. The delays are the cycles the
// master waits, from the start of the transaction, before raising ARVALID and
// RREADY respectively.
type ReadTransaction struct {
	Address uint64
	Prot    uint8

	AddressDelay int
	DataDelay    int
}

// WriteResponse reports a completed write.
type WriteResponse struct {
	TransactionID string
	Address       uint64
	Resp          Resp
}

// ReadResponse reports a completed read.
type ReadResponse struct {
	TransactionID string
	Address       uint64
	Data          uint64
	Resp          Resp
}

type queuedWrite struct {
	id string
	WriteTransaction
}

type queuedRead struct {
	id string
	ReadTransaction
}
