// Package probe answers whether a printer is reachable on the network.
//
// A printer is a black box with no agreed status protocol, so the prober
// leans on breadth rather than any single fragile check: a TCP connect
// to the web port, a plain HTTP GET, then the raw print and IPP ports.
// Each technique has its own short timeout and the first positive signal
// of any kind, including an HTTP error response, settles the question.
package probe
