package scenario

// defaultScenario exercises gaps, an open final packet, and delayed lite
// channels.
const defaultScenario = `
name: default
stream:
  bus_width: 4
  ready: 0.7
  packets:
    - [10, 20, null, 30]
    - [1, 2]
    - [3]
lite:
  ready: 0.8
  latency: 1
  writes:
    - {address: 0x10, data: 0xcafe, address_delay: 2, data_delay: 0, response_ready_delay: 5}
    - {address: 0x14, data: 0x12345678, strobe: 0x3}
  reads:
    - {address: 0x10, address_delay: 1}
    - {address: 0x2000}
`

// Default returns the scenario used when no file is given.
func Default() *Scenario {
	s, err := Parse([]byte(defaultScenario))
	if err != nil {
		panic(err)
	}

	return s
}
