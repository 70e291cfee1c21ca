// Package scenario reads the YAML files that describe what a bench run
// sends: stream packets for a source, and transactions for a lite master.
//
// A packet is a list of words. A null word is an absent word, a cycle with
// TVALID low:
//
//	stream:
//	  bus_width: 4
//	  ready: 0.5
//	  packets:
//	    - [10, 20, null, 30]
package scenario

import (
	"bytes"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/sarchlab/axisim/axi/lite"
	"github.com/sarchlab/axisim/axi/stream"
)

// Scenario is the content of a scenario file. Seed and Cycles are zero when
// the file leaves them to the command line.
type Scenario struct {
	Name   string `yaml:"name"`
	Seed   int64  `yaml:"seed"`
	Cycles uint64 `yaml:"cycles"`

	Stream *Stream `yaml:"stream"`
	Lite   *Lite   `yaml:"lite"`
}

// Stream describes a source, buffer and sink run.
type Stream struct {
	BusWidth       int         `yaml:"bus_width"`
	Ready          *float64    `yaml:"ready"`
	IncompleteLast bool        `yaml:"incomplete_last"`
	Packets        [][]*uint64 `yaml:"packets"`
}

// Lite describes a master and slave run.
type Lite struct {
	DataWidth int      `yaml:"data_width"`
	AddrWidth int      `yaml:"addr_width"`
	Ready     *float64 `yaml:"ready"`
	Latency   int      `yaml:"latency"`
	Base      uint64   `yaml:"base"`
	Size      uint64   `yaml:"size"`

	Writes []Write `yaml:"writes"`
	Reads  []Read  `yaml:"reads"`
}

// Write is one write transaction. A missing strobe enables every byte lane.
type Write struct {
	Address            uint64  `yaml:"address"`
	Data               uint64  `yaml:"data"`
	Strobe             *uint64 `yaml:"strobe"`
	Prot               uint8   `yaml:"prot"`
	AddressDelay       int     `yaml:"address_delay"`
	DataDelay          int     `yaml:"data_delay"`
	ResponseReadyDelay int     `yaml:"response_ready_delay"`
}

// Read is one read transaction.
type Read struct {
	Address      uint64 `yaml:"address"`
	Prot         uint8  `yaml:"prot"`
	AddressDelay int    `yaml:"address_delay"`
	DataDelay    int    `yaml:"data_delay"`
}

// Load reads and checks a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading scenario")
	}

	s, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "scenario %s", path)
	}

	return s, nil
}

// Parse decodes and checks a scenario. Unknown keys are errors.
func Parse(data []byte) (*Scenario, error) {
	s := &Scenario{}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(s); err != nil {
		return nil, errors.Wrap(err, "decoding scenario")
	}

	s.applyDefaults()

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Scenario) applyDefaults() {
	if s.Stream != nil && s.Stream.BusWidth == 0 {
		s.Stream.BusWidth = 4
	}

	if s.Lite != nil {
		if s.Lite.DataWidth == 0 {
			s.Lite.DataWidth = 32
		}

		if s.Lite.AddrWidth == 0 {
			s.Lite.AddrWidth = 32
		}

		if s.Lite.Size == 0 {
			s.Lite.Size = 4096
		}
	}
}

// Validate reports settings that no bench can run.
func (s *Scenario) Validate() error {
	if s.Stream == nil && s.Lite == nil {
		return errors.New("scenario has neither a stream nor a lite section")
	}

	if s.Stream != nil {
		if err := checkProbability(s.Stream.Ready); err != nil {
			return errors.Wrap(err, "stream")
		}
	}

	if s.Lite != nil {
		if err := checkProbability(s.Lite.Ready); err != nil {
			return errors.Wrap(err, "lite")
		}

		if s.Lite.Latency < 0 {
			return errors.Errorf("lite: negative latency %d", s.Lite.Latency)
		}
	}

	return nil
}

func checkProbability(p *float64) error {
	if p != nil && (*p < 0 || *p > 1) {
		return errors.Errorf("ready probability %g is not in [0, 1]", *p)
	}

	return nil
}

// ReadyProbability returns the sink ready probability, 1 if not given.
func (s *Stream) ReadyProbability() float64 {
	return probabilityOr1(s.Ready)
}

// StreamPackets converts the packet lists into stream packets.
func (s *Stream) StreamPackets() []stream.Packet {
	packets := make([]stream.Packet, 0, len(s.Packets))

	for _, words := range s.Packets {
		p := make(stream.Packet, len(words))
		for i, w := range words {
			if w != nil {
				p[i] = stream.W(*w)
			}
		}

		packets = append(packets, p)
	}

	return packets
}

// ReadyProbability returns the slave ready probability, 1 if not given.
func (l *Lite) ReadyProbability() float64 {
	return probabilityOr1(l.Ready)
}

// WriteTransactions converts the writes into master transactions.
func (l *Lite) WriteTransactions() []lite.WriteTransaction {
	allLanes := uint64(1)<<uint(l.DataWidth/8) - 1
	ts := make([]lite.WriteTransaction, 0, len(l.Writes))

	for _, w := range l.Writes {
		strobe := allLanes
		if w.Strobe != nil {
			strobe = *w.Strobe
		}

		ts = append(ts, lite.WriteTransaction{
			Address:            w.Address,
			Data:               w.Data,
			Strobe:             strobe,
			Prot:               w.Prot,
			AddressDelay:       w.AddressDelay,
			DataDelay:          w.DataDelay,
			ResponseReadyDelay: w.ResponseReadyDelay,
		})
	}

	return ts
}

// ReadTransactions converts the reads into master transactions.
func (l *Lite) ReadTransactions() []lite.ReadTransaction {
	ts := make([]lite.ReadTransaction, 0, len(l.Reads))

	for _, r := range l.Reads {
		ts = append(ts, lite.ReadTransaction{
			Address:      r.Address,
			Prot:         r.Prot,
			AddressDelay: r.AddressDelay,
			DataDelay:    r.DataDelay,
		})
	}

	return ts
}

func probabilityOr1(p *float64) float64 {
	if p == nil {
		return 1
	}

	return *p
}
