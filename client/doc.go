// Package client implements a typed client of the customs brokerage REST API.
//
// Every call goes through an authenticated transport that attaches the stored
// access token and transparently refreshes it once when the API answers 401.
// Domain operations are grouped by resource:
//
//	cli, _ := client.New("https://broker.example.com/api/")
//	_, err := cli.Auth.Login(ctx, "user", "secret")
//	orders, err := cli.Orders.List(ctx)
package client
