package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("starting")
	os.Exit(1) // want "calling os.Exit directly in main.main"
}

func helper() {
	os.Exit(2)
}

type runner struct{}

func (runner) main() {
	os.Exit(3)
}
