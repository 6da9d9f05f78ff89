package main

import "sensorhub/internal/cmd"

func main() {
	cmd.Execute()
}
