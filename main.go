/*
	Copyright 2025 Markus Papenbrock
*/

package main

import "github.com/mpapenbr/gridrace-service-manager-go/cmd"

func main() {
	cmd.Execute()
}
