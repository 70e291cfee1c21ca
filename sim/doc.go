// Package sim provides the cycle-level simulation kernel shared by the bus
// functional models: a serial event engine, tick scheduling, hooks, FIFO
// buffers and clocked signal registers.
package sim
