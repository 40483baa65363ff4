package main

import (
	_ "time/tzdata"

	"github.com/nikogura/cv-customizer/cmd"
)

func main() {
	cmd.Execute()
}
