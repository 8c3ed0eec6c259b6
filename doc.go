// Package brokerage wires the customs brokerage API client from configuration.
//
// The client/ tree holds the typed API client, its authenticated transport
// and credential stores; this package turns ClientOptions, usually populated
// from a config file, environment or CLI flags, into a ready to use client:
//
//	cli, err := brokerage.NewClient(ctx, &brokerage.ClientOptions{APIBase: "https://broker.example.com/api/"})
//	profile, err := cli.Profile.Me(ctx)
package brokerage
