package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	if err := newApp().Execute(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "designate: %v\n", err)
		os.Exit(1)
	}
}
