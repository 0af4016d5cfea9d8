package main

import "github.com/paydash/payment-dashboard/cmd"

func main() {
	cmd.Execute()
}
