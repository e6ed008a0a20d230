package main

import (
	"context"
	"os"

	"github.com/totymark/totymark/internal/admincli"
)

func main() {
	os.Exit(admincli.Execute(context.Background(), admincli.DefaultEnv(), os.Args[1:]))
}
