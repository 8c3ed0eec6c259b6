// Package cli implements brokerctl, a command line client of the customs brokerage API.
//
// Every command prints its result as indented JSON on the output writer, logs go to stderr.
package cli
