package main

import (
	"context"
	"os"

	"github.com/okian/dingerzone/internal/sitecheck"
)

func main() {
	os.Exit(sitecheck.Execute(context.Background()))
}
