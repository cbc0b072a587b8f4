package main

import (
	"github.com/sifis-home/aud-sensor/cmd"
)

func main() {
	cmd.Execute()
}
